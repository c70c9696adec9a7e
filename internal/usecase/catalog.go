package usecase

import (
	"strings"

	"MacroPull/internal/domain/models"
	"MacroPull/pkg/config"
)

// Series groups used by reporting consumers.
const (
	GroupRates       = "rates"
	GroupEquities    = "equities"
	GroupInflation   = "inflation"
	GroupPolicy      = "policy"
	GroupFX          = "fx"
	GroupCommodities = "commodities"
)

// Plausible ranges per unit. Values outside reject the candidate.
var (
	rangeYield    = models.ValueRange{Min: -5, Max: 25}
	rangePolicy   = models.ValueRange{Min: -2, Max: 30}
	rangeIndex    = models.ValueRange{Min: 1, Max: 1e6}
	rangeCPI      = models.ValueRange{Min: 1, Max: 1e4}
	rangeAUDUSD   = models.ValueRange{Min: 0.2, Max: 2}
	rangeDXYProxy = models.ValueRange{Min: 1, Max: 500}
	rangeGold     = models.ValueRange{Min: 100, Max: 20000}
	rangeCrude    = models.ValueRange{Min: -50, Max: 500}
	rangeIronOre  = models.ValueRange{Min: 5, Max: 1000}
)

// BuildCatalog turns static configuration into the ordered list of logical
// series for the selected markets followed by FX and commodities. Series
// without any candidate are left out.
func BuildCatalog(cfg *config.Config, markets []config.Market) []models.LogicalSeries {
	var out []models.LogicalSeries
	add := func(ls models.LogicalSeries) {
		if len(ls.Candidates) > 0 {
			out = append(out, ls)
		}
	}

	for _, m := range markets {
		code := strings.ToLower(m.Code)

		add(models.LogicalSeries{
			Name:       code + "_10y",
			Label:      m.Name + " 10y government bond yield",
			Group:      GroupRates,
			Kind:       models.KindMoM,
			Frequency:  models.FrequencyDaily,
			Unit:       "percent",
			Range:      rangeYield,
			Candidates: chain(yahoo(m.TenYearTicker, m.TenYearScale), m.TenYearFallback),
		})

		equityLabel := m.EquityName
		if equityLabel == "" {
			equityLabel = m.Name + " equities"
		}
		add(models.LogicalSeries{
			Name:       code + "_equity",
			Label:      equityLabel,
			Group:      GroupEquities,
			Kind:       models.KindMoM,
			Frequency:  models.FrequencyDaily,
			Unit:       "index points",
			Range:      rangeIndex,
			Candidates: chain(yahoo(m.EquityTicker, 1), m.EquityFallback),
		})

		add(models.LogicalSeries{
			Name:       code + "_cpi",
			Label:      m.Name + " CPI",
			Group:      GroupInflation,
			Kind:       models.KindYoY,
			Frequency:  models.Frequency(m.CPIFrequency),
			Unit:       "index",
			Range:      rangeCPI,
			Candidates: refs(m.CPI),
		})

		policyLabel := m.PolicyName
		if policyLabel == "" {
			policyLabel = m.Name + " policy rate"
		}
		add(models.LogicalSeries{
			Name:       code + "_policy",
			Label:      policyLabel,
			Group:      GroupPolicy,
			Kind:       models.KindLevel,
			Frequency:  models.FrequencyMonthly,
			Unit:       "percent",
			Range:      rangePolicy,
			Candidates: refs(m.PolicyRate),
		})
	}

	add(daily("audusd", "AUDUSD", GroupFX, "USD per AUD", rangeAUDUSD, yahoo(cfg.FX.AUDUSD, 1)))
	add(daily("dxy", "US dollar index proxy ("+cfg.FX.DXYProxy+")", GroupFX, "USD", rangeDXYProxy, yahoo(cfg.FX.DXYProxy, 1)))
	add(daily("gold", "Gold", GroupCommodities, "USD/oz", rangeGold, yahoo(cfg.Commodities.Gold, 1)))
	add(daily("wti", "WTI crude", GroupCommodities, "USD/bbl", rangeCrude, yahoo(cfg.Commodities.WTI, 1)))
	add(daily("brent", "Brent crude", GroupCommodities, "USD/bbl", rangeCrude, yahoo(cfg.Commodities.Brent, 1)))

	var iron []models.Candidate
	for _, ticker := range cfg.Commodities.IronOreCandidates {
		iron = append(iron, yahoo(ticker, 1)...)
	}
	if cfg.Commodities.IronOreTradingEconomic != "" {
		iron = append(iron, models.Candidate{Source: config.SourceTradingEconomics, ID: cfg.Commodities.IronOreTradingEconomic, Scale: 1})
	}
	add(daily("iron_ore", "Iron ore", GroupCommodities, "USD/t", rangeIronOre, iron))

	return out
}

func daily(name, label, group, unit string, r models.ValueRange, candidates []models.Candidate) models.LogicalSeries {
	return models.LogicalSeries{
		Name:       name,
		Label:      label,
		Group:      group,
		Kind:       models.KindMoM,
		Frequency:  models.FrequencyDaily,
		Unit:       unit,
		Range:      r,
		Candidates: candidates,
	}
}

func yahoo(ticker string, scale float64) []models.Candidate {
	if strings.TrimSpace(ticker) == "" {
		return nil
	}
	return []models.Candidate{{Source: config.SourceYahoo, ID: ticker, Scale: scale}}
}

func chain(primary []models.Candidate, fallback *config.SourceRef) []models.Candidate {
	if fallback == nil {
		return primary
	}
	return append(primary, refs([]config.SourceRef{*fallback})...)
}

func refs(in []config.SourceRef) []models.Candidate {
	out := make([]models.Candidate, 0, len(in))
	for _, r := range in {
		out = append(out, models.Candidate{Source: r.Source, ID: r.ID, Scale: r.Scale})
	}
	return out
}
