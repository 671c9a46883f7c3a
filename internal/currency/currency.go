// Package currency defines the currencies a user can pick for display.
package currency

// Config describes a supported display currency.
type Config struct {
	Code     string `json:"code"`
	Symbol   string `json:"symbol"`
	Name     string `json:"name"`
	Decimals int    `json:"decimals"`
}

// Default is the currency assigned to new users.
const Default = "IDR"

// Supported lists the selectable currencies.
var Supported = []Config{
	{Code: "IDR", Symbol: "Rp", Name: "Indonesian Rupiah", Decimals: 0},
	{Code: "USD", Symbol: "$", Name: "US Dollar", Decimals: 2},
	{Code: "EUR", Symbol: "€", Name: "Euro", Decimals: 2},
	{Code: "GBP", Symbol: "£", Name: "British Pound", Decimals: 2},
	{Code: "JPY", Symbol: "¥", Name: "Japanese Yen", Decimals: 0},
	{Code: "SGD", Symbol: "S$", Name: "Singapore Dollar", Decimals: 2},
	{Code: "MYR", Symbol: "RM", Name: "Malaysian Ringgit", Decimals: 2},
}

// IsSupported reports whether code is a selectable currency.
func IsSupported(code string) bool {
	for _, c := range Supported {
		if c.Code == code {
			return true
		}
	}
	return false
}
