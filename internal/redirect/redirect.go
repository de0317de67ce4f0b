// Package redirect routes the catch-all "other" category into a more
// specific flow based on the answer to its first question.
package redirect

import (
	"sort"

	"github.com/mbd888/scamcheck/internal/flows"
)

// SourceCategory is the only category whose routing answer is resolved here.
const SourceCategory = flows.CategoryOther

// Target is where a routing answer leads. Stay means keep going inside the
// source category at its next question.
type Target struct {
	Category string `json:"category,omitempty"`
	Stay     bool   `json:"stay"`
}

var table = map[string]Target{
	"purchase-or-item":       {Category: flows.CategoryMarketplace},
	"investment-opportunity": {Category: flows.CategoryInvestment},
	"crypto-request":         {Category: flows.CategoryCryptoPayment},
	"move-money":             {Category: flows.CategoryOwnAccountTransfer},
	"pay-person-or-invoice":  {Category: flows.CategoryBankTransfer},
	"gift-card-request":      {Category: flows.CategoryGiftCard},
	"job-or-income":          {Category: flows.CategoryJobOffer},
	"online-relationship":    {Category: flows.CategoryOnlineRelationship},
	"safety-security":        {Stay: true},
	"none-not-sure":          {Stay: true},
}

// Resolve maps a routing option value to its target. Unknown values stay.
func Resolve(value string) Target {
	if t, ok := table[value]; ok {
		return t
	}
	return Target{Stay: true}
}

// Values lists every routed option value in sorted order.
func Values() []string {
	out := make([]string, 0, len(table))
	for v := range table {
		out = append(out, v)
	}
	sort.Strings(out)
	return out
}
