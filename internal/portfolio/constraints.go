package portfolio

import (
	"fmt"
	"strings"
)

// Income policy parameters. Target annual income and the hard withdrawal
// ceiling it must stay under.
const (
	targetAnnualIncome = 30000.0
	maxWithdrawalRate  = 0.0425
)

// stockBasketTicker marks the holding that stands in for the direct-stock
// basket; its contents are the portfolio's StockPositions.
const stockBasketTicker = "STOCKS"

type Severity string

const (
	SeverityError   Severity = "error"
	SeverityWarning Severity = "warning"
)

// Violation is one broken or at-risk constraint.
type Violation struct {
	Severity Severity
	Sleeve   string
	Rule     string
	Message  string
}

// ValidationResult collects violations and warnings across all sleeves.
// Warnings never flip IsValid.
type ValidationResult struct {
	IsValid    bool
	Violations []Violation
	Warnings   []Violation
}

func newValidationResult() *ValidationResult {
	return &ValidationResult{IsValid: true}
}

func (r *ValidationResult) add(severity Severity, sleeve, rule, message string) {
	v := Violation{Severity: severity, Sleeve: sleeve, Rule: rule, Message: message}
	if severity == SeverityError {
		r.Violations = append(r.Violations, v)
		r.IsValid = false
	} else {
		r.Warnings = append(r.Warnings, v)
	}
}

func (r *ValidationResult) merge(other *ValidationResult) {
	r.Violations = append(r.Violations, other.Violations...)
	r.Warnings = append(r.Warnings, other.Warnings...)
	if !other.IsValid {
		r.IsValid = false
	}
}

// ValidateConstraints checks every sleeve against its rule set plus the
// income policy, and returns the combined result.
func ValidateConstraints(p *Portfolio) *ValidationResult {
	result := newValidationResult()

	for _, sleeve := range p.Sleeves {
		holdings := p.sleeveHoldings(sleeve.ID)

		switch sleeve.Code {
		case SleeveDefensive:
			result.merge(validateDefensiveSleeve(holdings, sleeve))
		case SleeveEquity:
			result.merge(validateEquitySleeve(holdings, sleeve, p))
		case SleeveReal:
			result.merge(validateRealAssetsSleeve(holdings, sleeve))
		case SleeveCash:
			result.merge(validateCashBufferSleeve(holdings, sleeve))
		}
	}

	result.merge(validateIncomePolicy(p))

	return result
}

// Defensive income sleeve: investment-grade anchor, max 20% per instrument.
func validateDefensiveSleeve(holdings []Holding, sleeve Sleeve) *ValidationResult {
	result := newValidationResult()

	totalValue := sumValues(holdings)
	if totalValue == 0 {
		return result
	}

	for _, h := range holdings {
		pct := h.CurrentValue / totalValue * 100
		if pct > 20 {
			result.add(SeverityError, sleeve.Name, "Max 20% per instrument",
				fmt.Sprintf("%s represents %.1f%% of sleeve (max 20%%)", h.Ticker, pct))
		}
	}

	return result
}

// Equity income sleeve: max 20% per fund, max 15% in the direct-stock basket,
// min 12 names in the basket, max 3% of portfolio per name.
func validateEquitySleeve(holdings []Holding, sleeve Sleeve, p *Portfolio) *ValidationResult {
	result := newValidationResult()

	totalValue := sumValues(holdings)
	if totalValue == 0 {
		return result
	}

	var basketPct float64
	for _, h := range holdings {
		pct := h.CurrentValue / totalValue * 100

		if h.Ticker == stockBasketTicker {
			basketPct = pct

			if len(p.StockPositions) > 0 && len(p.StockPositions) < 12 {
				result.add(SeverityError, sleeve.Name, "Min 12 stock holdings",
					fmt.Sprintf("Stock basket has %d stocks (minimum 12 required)", len(p.StockPositions)))
			}
			for _, stock := range p.StockPositions {
				if stock.PortfolioWeightPct > 3.0 {
					result.add(SeverityError, sleeve.Name, "Max 3% per stock",
						fmt.Sprintf("%s represents %.2f%% of portfolio (max 3%%)", stock.Ticker, stock.PortfolioWeightPct))
				}
			}
			continue
		}

		if pct > 20 {
			result.add(SeverityError, sleeve.Name, "Max 20% per ETF/fund",
				fmt.Sprintf("%s represents %.1f%% of sleeve (max 20%%)", h.Ticker, pct))
		}
	}

	if basketPct > 15 {
		result.add(SeverityError, sleeve.Name, "Max 15% in individual stocks",
			fmt.Sprintf("Stock basket represents %.1f%% of sleeve (max 15%%)", basketPct))
	}

	return result
}

// Real assets sleeve: max 10% each for REITs, infrastructure, and
// credit/asset-backed. Classification is a name/ticker heuristic.
func validateRealAssetsSleeve(holdings []Holding, sleeve Sleeve) *ValidationResult {
	result := newValidationResult()

	totalValue := sumValues(holdings)
	if totalValue == 0 {
		return result
	}

	var reitPct, infraPct, creditPct float64
	for _, h := range holdings {
		pct := h.CurrentValue / totalValue * 100
		ticker := strings.ToUpper(h.Ticker)
		name := strings.ToUpper(h.Name)

		switch {
		case strings.Contains(name, "REIT") || strings.Contains(name, "PROPERTY"):
			reitPct += pct
		case strings.Contains(ticker, "INFR") || strings.Contains(name, "INFRASTRUCTURE"):
			infraPct += pct
		case strings.Contains(name, "CREDIT") || strings.Contains(name, "BOND"):
			creditPct += pct
		}
	}

	if reitPct > 10 {
		result.add(SeverityError, sleeve.Name, "Max 10% REITs",
			fmt.Sprintf("REITs represent %.1f%% of sleeve (max 10%%)", reitPct))
	}
	if infraPct > 10 {
		result.add(SeverityError, sleeve.Name, "Max 10% Infrastructure",
			fmt.Sprintf("Infrastructure represents %.1f%% of sleeve (max 10%%)", infraPct))
	}
	if creditPct > 10 {
		result.add(SeverityError, sleeve.Name, "Max 10% Credit/asset-backed",
			fmt.Sprintf("Credit/asset-backed represents %.1f%% of sleeve (max 10%%)", creditPct))
	}

	return result
}

// Cash buffer sleeve: 1.5 to 2.0 years of target income, GBP instruments.
// Both checks warn rather than fail; buffer drift is managed, not blocking.
func validateCashBufferSleeve(holdings []Holding, sleeve Sleeve) *ValidationResult {
	result := newValidationResult()

	totalValue := sumValues(holdings)
	minBuffer := targetAnnualIncome * 1.5
	maxBuffer := targetAnnualIncome * 2.0

	if totalValue < minBuffer {
		result.add(SeverityWarning, sleeve.Name, "Min 1.5 years income buffer",
			fmt.Sprintf("Cash buffer is %.0f (should be %.0f-%.0f)", totalValue, minBuffer, maxBuffer))
	} else if totalValue > maxBuffer {
		result.add(SeverityWarning, sleeve.Name, "Max 2.0 years income buffer",
			fmt.Sprintf("Cash buffer is %.0f (should be %.0f-%.0f)", totalValue, minBuffer, maxBuffer))
	}

	for _, h := range holdings {
		ticker := strings.ToUpper(h.Ticker)
		if !strings.Contains(ticker, "GBP") && !strings.Contains(ticker, "CASH") {
			result.add(SeverityWarning, sleeve.Name, "GBP-only instruments",
				fmt.Sprintf("%s may not be GBP-denominated", h.Ticker))
		}
	}

	return result
}

// Income policy: target income must stay under the hard withdrawal ceiling,
// and realised income within 90% of target.
func validateIncomePolicy(p *Portfolio) *ValidationResult {
	result := newValidationResult()

	maxWithdrawal := p.TotalTarget * maxWithdrawalRate
	if targetAnnualIncome > maxWithdrawal {
		result.add(SeverityError, "Portfolio", "Max 4.25% withdrawal rate",
			fmt.Sprintf("Target income %.0f exceeds max withdrawal %.0f (4.25%% of %.0f)",
				targetAnnualIncome, maxWithdrawal, p.TotalTarget))
	}

	if len(p.IncomeRecords) > 0 {
		var annualIncome float64
		for _, rec := range p.IncomeRecords {
			annualIncome += rec.Amount
		}
		if annualIncome < targetAnnualIncome*0.9 {
			result.add(SeverityWarning, "Portfolio", "Target annual income",
				fmt.Sprintf("Projected annual income %.0f is below target %.0f", annualIncome, targetAnnualIncome))
		}
	}

	return result
}

func sumValues(holdings []Holding) float64 {
	var total float64
	for _, h := range holdings {
		total += h.CurrentValue
	}
	return total
}
