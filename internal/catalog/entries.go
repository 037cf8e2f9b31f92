package catalog

import "github.com/animus-labs/animus-scenarios/internal/domain"

// entries is the built-in catalog, in presentation order. Embeddings are
// filled in by New.
var entries = []domain.ScenarioSpec{
	{
		ScenarioID:       "quant_factor",
		Title:            "Quant Factor Screen (Value/Quality/Momentum)",
		ShortDescription: "Composite factor scoring with optional ML ranking",
		Rationale:        "Blend valuation, quality, and momentum for robust alpha sourcing.",
		Inputs:           []string{"universe", "lookback", "weights"},
		Methodology: []string{
			"Normalize EV/EBITDA, FCF yield, ROIC, accruals, and momentum via z-scores",
			"Combine using configurable weights and optional XGBoost ranker",
			"Generate composite ranks and backtest metrics",
		},
		Deliverables:    []string{"Top-N tickers", "Factor attribution", "Backtest KPIs (CAGR, Sharpe, max drawdown)"},
		Keywords:        []string{"value", "quality", "momentum", "factors", "quant", "z-score", "backtest"},
		Tags:            []string{"equities", "systematic", "fundamental"},
		EligibilityTags: []string{"suitable_long_only"},
		Complexity:      "intermediate",
	},
	{
		ScenarioID:       "trend_strength",
		Title:            "Trend & Relative Strength",
		ShortDescription: "Trend filters with relative strength overlays",
		Rationale:        "Identify leaders by combining trend confirmation with RS rankings.",
		Inputs:           []string{"universe", "ma_windows", "rs_window"},
		Methodology: []string{
			"Apply SMA(50/200) or configurable moving averages",
			"Compute relative strength percentile versus universe",
			"Incorporate volatility scaling and Kelly fraction guardrails",
		},
		Deliverables:    []string{"Trend-qualified tickers", "RS leaderboard", "Position size guidance"},
		Keywords:        []string{"trend", "momentum", "relative strength", "moving average", "kelly"},
		Tags:            []string{"equities", "technical", "momentum"},
		EligibilityTags: []string{"suitable_long_only"},
		Complexity:      "basic",
	},
	{
		ScenarioID:       "earnings_momentum",
		Title:            "Earnings Momentum & Revisions",
		ShortDescription: "Capture post-earnings drift and analyst revisions",
		Rationale:        "Earnings-related signals have persistent short-term alpha.",
		Inputs:           []string{"earnings_window", "revision_thresholds"},
		Methodology: []string{
			"Filter tickers with upcoming or recent earnings",
			"Score analyst revisions and surprises",
			"Apply logistic beat/raise model for probability weighting",
		},
		Deliverables:    []string{"Pre/post earnings watchlist", "Signal diagnostics", "Event calendar"},
		Keywords:        []string{"earnings", "revisions", "post-earnings drift", "logistic"},
		Tags:            []string{"equities", "event", "fundamental"},
		EligibilityTags: []string{"suitable_long_only"},
		Complexity:      "intermediate",
	},
	{
		ScenarioID:       "lightweight_dcf",
		Title:            "Lightweight DCF & Margin-of-Safety",
		ShortDescription: "Scenario-based discounted cash-flow valuation",
		Rationale:        "Monte Carlo on growth/WACC bands to estimate fair value distribution.",
		Inputs:           []string{"revenue_growth", "fcf_growth", "wacc", "terminal"},
		Methodology: []string{
			"Model base/bull/bear cash-flow growth paths",
			"Discount using WACC bands and terminal multiples",
			"Generate fair value distribution via Monte Carlo",
		},
		Deliverables:    []string{"Margin-of-safety vs price", "Sensitivity tornado", "Undervalued list"},
		Keywords:        []string{"dcf", "valuation", "margin of safety", "monte carlo"},
		Tags:            []string{"equities", "valuation", "fundamental"},
		EligibilityTags: []string{"suitable_long_only"},
		Complexity:      "intermediate",
	},
	{
		ScenarioID:       "dividend_growth",
		Title:            "Dividend-Growth Defensives",
		ShortDescription: "Screen for durable dividend growers",
		Rationale:        "Balance income stability with balance-sheet strength.",
		Inputs:           []string{"min_years", "payout_cap", "leverage_cap"},
		Methodology: []string{
			"Filter companies with >= min years of dividend raises",
			"Ensure FCF payout < cap and leverage within limits",
			"Overlay quality metrics for resilience",
		},
		Deliverables:    []string{"Dividend safety scorecard", "Durable yield candidates"},
		Keywords:        []string{"dividend", "defensive", "income", "quality", "payout"},
		Tags:            []string{"equities", "income", "defensive"},
		EligibilityTags: []string{"suitable_income"},
		Complexity:      "basic",
	},
	{
		ScenarioID:       "macro_regime",
		Title:            "Macro-Regime Tilt",
		ShortDescription: "Regime-aware allocation suggestions",
		Rationale:        "Align exposures with probabilistic macro regimes.",
		Inputs:           []string{"macro_views", "risk_budget"},
		Methodology: []string{
			"Estimate regimes via HMM/Markov-switching",
			"Map sectors/ETFs to regimes",
			"Blend with Black-Litterman for portfolio tilt",
		},
		Deliverables:    []string{"Regime map", "Suggested tilts", "Stress tests"},
		Keywords:        []string{"macro", "regime", "allocation", "black-litterman", "stress"},
		Tags:            []string{"multi-asset", "macro", "allocation"},
		EligibilityTags: []string{"portfolio_construction"},
		Complexity:      "advanced",
	},
	{
		ScenarioID:       "nlp_sentiment",
		Title:            "News & Social Sentiment (NLP)",
		ShortDescription: "FinBERT-driven sentiment analytics",
		Rationale:        "Rapidly contextualise news velocity and anomalies.",
		Inputs:           []string{"sources", "decay"},
		Methodology: []string{
			"Ingest headlines/social feeds",
			"Score sentiment via FinBERT with velocity/acceleration",
			"Flag anomalies and catalysts",
		},
		Deliverables:    []string{"Sentiment-ranked tickers", "Why-now snippets", "Risk flags"},
		Keywords:        []string{"sentiment", "nlp", "finbert", "news", "social"},
		Tags:            []string{"equities", "nlp", "alternative_data"},
		EligibilityTags: []string{"suitable_long_only"},
		Complexity:      "advanced",
	},
	{
		ScenarioID:       "insider_buybacks",
		Title:            "Insider Buying & Buybacks",
		ShortDescription: "Blend insider activity with capital returns",
		Rationale:        "Identify conviction via ownership and repurchase signals.",
		Inputs:           []string{"net_buys", "buyback_yield"},
		Methodology: []string{
			"Aggregate insider transactions",
			"Combine with buyback yield thresholds",
			"Run valuation sanity checks",
		},
		Deliverables:    []string{"Capital-return shortlist", "Float shrink trajectory"},
		Keywords:        []string{"insider", "buybacks", "capital return"},
		Tags:            []string{"equities", "capital_allocation"},
		EligibilityTags: []string{"suitable_long_only"},
		Complexity:      "basic",
	},
	{
		ScenarioID:       "theme_basket",
		Title:            "Secular Theme Basket",
		ShortDescription: "Curate theme baskets with HRP weighting",
		Rationale:        "Systematically surface thematic exposures.",
		Inputs:           []string{"theme_keywords", "exposure_threshold", "moat_filters"},
		Methodology: []string{
			"Text-mine filings and transcripts for theme alignment",
			"Filter on quality/growth metrics",
			"Allocate using Hierarchical Risk Parity",
		},
		Deliverables:    []string{"Theme basket", "Holdings rationale", "Overlap map"},
		Keywords:        []string{"theme", "hrp", "basket", "moat"},
		Tags:            []string{"equities", "thematic", "portfolio"},
		EligibilityTags: []string{"portfolio_construction"},
		Complexity:      "intermediate",
	},
	{
		ScenarioID:       "pair_trade",
		Title:            "Hedged Single-Name (Pair Trade)",
		ShortDescription: "Construct long/short pair trades",
		Rationale:        "Neutralise factor bets with hedge selection.",
		Inputs:           []string{"target", "hedge_universe", "beta_window"},
		Methodology: []string{
			"Estimate rolling beta and cointegration",
			"Size long/short legs to neutralise exposures",
			"Define entry/exit risk rules",
		},
		Deliverables:          []string{"Trade pair", "Hedge ratio", "Risk rules"},
		Keywords:              []string{"pair trade", "hedge", "cointegration", "beta"},
		Tags:                  []string{"equities", "hedging", "long_short"},
		EligibilityTags:       []string{"hedging", "advanced_derivatives"},
		RequiresAccreditation: true,
		Complexity:            "advanced",
	},
	{
		ScenarioID:       "smart_beta",
		Title:            "Core Index + Smart-Beta Tilt",
		ShortDescription: "Blend core exposures with factor tilts",
		Rationale:        "Target alpha within tracking-error budgets.",
		Inputs:           []string{"core_etf", "factor_tilt", "max_tracking_error"},
		Methodology: []string{
			"Optimise mean-variance with TE constraint",
			"Alternative ERC/HRP weighting options",
			"Report TE vs alpha trade-offs",
		},
		Deliverables:    []string{"Core-satellite weights", "Risk contributions", "Scenario analysis"},
		Keywords:        []string{"smart beta", "tracking error", "erc", "portfolio"},
		Tags:            []string{"multi-asset", "portfolio", "allocation"},
		EligibilityTags: []string{"portfolio_construction"},
		Complexity:      "intermediate",
	},
	{
		ScenarioID:       "dca_planner",
		Title:            "DCA Planner with Regime-Aware Overlays",
		ShortDescription: "Plan dollar-cost averaging with guardrails",
		Rationale:        "Overlay valuation/volatility cues on systematic contributions.",
		Inputs:           []string{"cadence", "cashflows", "drawdown_triggers"},
		Methodology: []string{
			"Construct baseline DCA schedule",
			"Adjust contributions via valuation or volatility overlays",
			"Apply risk guardrails for drawdown triggers",
		},
		Deliverables:      []string{"Schedule", "Conditional tilts", "Risk guardrails"},
		Keywords:          []string{"dca", "planner", "regime", "volatility", "valuation"},
		Tags:              []string{"multi-asset", "planning", "retail"},
		EligibilityTags:   []string{"suitable_income", "portfolio_construction"},
		RestrictedRegions: []string{"SG"},
		Complexity:        "basic",
	},
}
