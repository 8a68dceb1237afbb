package extract

import (
	"tdnet_xbrl/pkg/core/filename"
	"tdnet_xbrl/pkg/core/ixbrl"
)

// Canonical fact names shared by both standards.
const (
	FactNetSales         = "net_sales"
	FactSGA              = "selling_general_admin"
	FactOperatingIncome  = "operating_income"
	FactOrdinaryIncome   = "ordinary_income"
	FactNetIncome        = "net_income"
	FactDilutedEPS       = "diluted_eps"
	FactCash             = "cash"
	FactCurrentAssets    = "current_assets"
	FactPPE              = "property_plant_equipment"
	FactNonCurrentAssets = "noncurrent_assets"
	FactTotalAssets      = "total_assets"
	FactRetainedEarnings = "retained_earnings"
	FactNetAssets        = "net_assets"
)

// defaultLabels are row labels the table fallback looks for.
var defaultLabels = map[string][]string{
	FactNetSales:         {"売上収益", "売上高", "営業収益", "売上", "収益"},
	FactSGA:              {"販売費及び一般管理費"},
	FactOperatingIncome:  {"営業利益", "営業損失"},
	FactOrdinaryIncome:   {"経常利益", "経常損失"},
	FactNetIncome:        {"親会社株主に帰属する当期純利益", "親会社の所有者に帰属する当期利益", "当期純利益", "四半期純利益", "中間純利益", "当期利益", "四半期利益"},
	FactDilutedEPS:       {"潜在株式調整後1株当たり", "希薄化後1株当たり"},
	FactCash:             {"現金及び預金", "現金及び現金同等物"},
	FactCurrentAssets:    {"流動資産合計"},
	FactPPE:              {"有形固定資産合計", "有形固定資産"},
	FactNonCurrentAssets: {"非流動資産合計", "固定資産合計"},
	FactTotalAssets:      {"資産合計", "総資産"},
	FactRetainedEarnings: {"利益剰余金"},
	FactNetAssets:        {"純資産合計", "資本合計"},
}

// defaultExcludes keeps substring label matches off neighbouring rows that
// contain the synonym: subtotals, pre-tax lines, cash-flow movements.
var defaultExcludes = map[string][]string{
	FactNetSales:      {"原価", "総利益", "総損失", "その他", "金融"},
	FactNetIncome:     {"税金等調整前", "税引前", "非支配株主", "包括"},
	FactCash:          {"増減", "期首", "換算差額"},
	FactCurrentAssets: {"非流動"},
	FactPPE:           {"取得", "売却", "減価償却"},
	FactTotalAssets:   {"流動", "固定", "繰延"},
	FactNetAssets:     {"負債"},
}

type vocabKey struct {
	statement filename.StatementKind
	standard  Standard
}

// vocabulary maps (statement, standard) to the ordered fact queries.
// Element names differ per standard: GAAP uses jppfs_cor, IFRS jpigp_cor with
// an IFRS suffix.
var vocabulary = map[vocabKey][]ixbrl.FactQuery{
	{filename.IncomeStatement, LocalGAAP}: {
		{Fact: FactNetSales, Element: "jppfs_cor:NetSales", Kind: ixbrl.Duration},
		{Fact: FactSGA, Element: "jppfs_cor:SellingGeneralAndAdministrativeExpenses", Kind: ixbrl.Duration},
		{Fact: FactOperatingIncome, Element: "jppfs_cor:OperatingIncome", Kind: ixbrl.Duration},
		{Fact: FactOrdinaryIncome, Element: "jppfs_cor:OrdinaryIncome", Kind: ixbrl.Duration},
		{Fact: FactNetIncome, Element: "jppfs_cor:NetIncome", Alternates: []string{"jppfs_cor:ProfitLoss"}, Kind: ixbrl.Duration},
	},
	{filename.IncomeStatement, IFRS}: {
		{Fact: FactNetSales, Element: "jpigp_cor:RevenueIFRS", Kind: ixbrl.Duration},
		{Fact: FactSGA, Element: "jpigp_cor:SellingGeneralAndAdministrativeExpensesIFRS", Kind: ixbrl.Duration},
		{Fact: FactOperatingIncome, Element: "jpigp_cor:OperatingProfitLossIFRS", Kind: ixbrl.Duration},
		{Fact: FactNetIncome, Element: "jpigp_cor:ProfitLossIFRS", Kind: ixbrl.Duration},
		{Fact: FactDilutedEPS, Element: "jpigp_cor:DilutedEarningsLossPerShareIFRS", Kind: ixbrl.Duration, PerShare: true},
	},
	{filename.BalanceSheet, LocalGAAP}: {
		{Fact: FactCash, Element: "jppfs_cor:CashAndDeposits", Kind: ixbrl.Instant},
		{Fact: FactCurrentAssets, Element: "jppfs_cor:CurrentAssets", Kind: ixbrl.Instant},
		{Fact: FactPPE, Element: "jppfs_cor:PropertyPlantAndEquipment", Kind: ixbrl.Instant},
		{Fact: FactTotalAssets, Element: "jppfs_cor:Assets", Kind: ixbrl.Instant},
		{Fact: FactRetainedEarnings, Element: "jppfs_cor:RetainedEarnings", Kind: ixbrl.Instant},
		{Fact: FactNetAssets, Element: "jppfs_cor:NetAssets", Kind: ixbrl.Instant},
	},
	{filename.BalanceSheet, IFRS}: {
		{Fact: FactCash, Element: "jpigp_cor:CashAndCashEquivalentsIFRS", Kind: ixbrl.Instant},
		{Fact: FactCurrentAssets, Element: "jpigp_cor:CurrentAssetsIFRS", Kind: ixbrl.Instant},
		{Fact: FactPPE, Element: "jpigp_cor:PropertyPlantAndEquipmentIFRS", Kind: ixbrl.Instant},
		{Fact: FactNonCurrentAssets, Element: "jpigp_cor:NonCurrentAssetsIFRS", Kind: ixbrl.Instant},
		{Fact: FactTotalAssets, Element: "jpigp_cor:AssetsIFRS", Kind: ixbrl.Instant},
		{Fact: FactRetainedEarnings, Element: "jpigp_cor:RetainedEarningsIFRS", Kind: ixbrl.Instant},
		{Fact: FactNetAssets, Element: "jpigp_cor:EquityIFRS", Kind: ixbrl.Instant},
	},
}

// Vocabulary resolves fact queries with label synonyms applied.
type Vocabulary struct {
	labels map[string][]string
}

// NewVocabulary creates a vocabulary. overrides replaces the default label
// synonyms for the facts it names.
func NewVocabulary(overrides map[string][]string) *Vocabulary {
	labels := make(map[string][]string, len(defaultLabels))
	for fact, l := range defaultLabels {
		labels[fact] = l
	}
	for fact, l := range overrides {
		if len(l) > 0 {
			labels[fact] = l
		}
	}
	return &Vocabulary{labels: labels}
}

// Queries returns the fact queries for a statement kind and standard, or nil
// when the combination is unsupported.
func (v *Vocabulary) Queries(statement filename.StatementKind, standard Standard) []ixbrl.FactQuery {
	base, ok := vocabulary[vocabKey{statement, standard}]
	if !ok {
		return nil
	}
	out := make([]ixbrl.FactQuery, len(base))
	for i, q := range base {
		q.Labels = v.labels[q.Fact]
		q.ExcludeLabels = defaultExcludes[q.Fact]
		out[i] = q
	}
	return out
}

// Labels returns the label synonyms configured for a fact.
func (v *Vocabulary) Labels(fact string) []string {
	return v.labels[fact]
}

// detectStatement guesses the statement kind from content when the file name
// does not say: whichever vocabulary has more elements present wins.
func detectStatement(doc *ixbrl.Document) filename.StatementKind {
	count := func(kind filename.StatementKind) int {
		n := 0
		for _, std := range []Standard{LocalGAAP, IFRS} {
			for _, q := range vocabulary[vocabKey{kind, std}] {
				for _, el := range q.Elements() {
					if doc.HasElement(el) {
						n++
					}
				}
			}
		}
		return n
	}

	bs, pl := count(filename.BalanceSheet), count(filename.IncomeStatement)
	switch {
	case bs == 0 && pl == 0:
		return filename.StatementUnknown
	case pl > bs:
		return filename.IncomeStatement
	default:
		return filename.BalanceSheet
	}
}
