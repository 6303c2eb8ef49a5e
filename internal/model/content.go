package model

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

var ErrInvalidPrice = errors.New("invalid price")

// ContentItem is a video that can be unlocked by paying its price.
// Whether it is already unlocked is only known to the server.
type ContentItem struct {
	ID    string
	Title string
	Price Price
}

// Price is an amount in minor units (cents).
type Price struct {
	Amount   int64
	Currency string
}

// ParsePrice parses a decimal string such as "9.99" or "10" into minor units.
func ParsePrice(s string) (Price, error) {
	s = strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(s), "$"))
	if s == "" {
		return Price{}, fmt.Errorf("%w: empty", ErrInvalidPrice)
	}

	whole, frac, hasFrac := strings.Cut(s, ".")
	if whole == "" {
		whole = "0"
	}
	if hasFrac && (frac == "" || len(frac) > 2) {
		return Price{}, fmt.Errorf("%w: %q", ErrInvalidPrice, s)
	}
	for len(frac) < 2 {
		frac += "0"
	}

	units, err := strconv.ParseInt(whole, 10, 64)
	if err != nil || units < 0 {
		return Price{}, fmt.Errorf("%w: %q", ErrInvalidPrice, s)
	}
	cents, err := strconv.ParseInt(frac, 10, 64)
	if err != nil || cents < 0 {
		return Price{}, fmt.Errorf("%w: %q", ErrInvalidPrice, s)
	}

	return Price{Amount: units*100 + cents, Currency: "usd"}, nil
}

func (p Price) IsZero() bool {
	return p.Amount == 0
}

// Decimal renders the amount the way the backend form field expects it ("9.99").
func (p Price) Decimal() string {
	return fmt.Sprintf("%d.%02d", p.Amount/100, p.Amount%100)
}

// Format renders the price for status messages, e.g. "$1,299.00".
func (p Price) Format() string {
	currencySymbols := map[string]string{
		"usd": "$",
		"eur": "€",
		"gbp": "£",
	}

	symbol := currencySymbols[strings.ToLower(p.Currency)]
	if symbol == "" {
		symbol = "$"
	}

	printer := message.NewPrinter(language.English)
	return symbol + printer.Sprintf("%.2f", float64(p.Amount)/100.0)
}
