package dto

import (
	domainbooking "spacio/internal/domain/booking"
	domainpricing "spacio/internal/domain/pricing"
)

const (
	QuoteStatusOK         = "ok"
	QuoteStatusIncomplete = "incomplete"
	QuoteStatusRejected   = "rejected"
)

// QuoteBreakdown mirrors the cost fields stored on a reservation.
type QuoteBreakdown struct {
	Days              int     `json:"days"`
	SpaceRatioPercent int     `json:"spaceRatioPercent"`
	BasePrice         float64 `json:"basePrice"`
	ServiceFee        float64 `json:"serviceFee"`
	Insurance         float64 `json:"insurance"`
	Deposit           float64 `json:"deposit"`
	TotalPrice        float64 `json:"totalPrice"`
	Currency          string  `json:"currency"`
	PolicyVersion     string  `json:"policyVersion"`
	InsuranceOffered  bool    `json:"insuranceOffered"`
}

type RejectionView struct {
	Code      string `json:"code"`
	Message   string `json:"message"`
	Available *int   `json:"available,omitempty"`
}

// QuoteResponse is advisory: Rejections lists every check the request currently fails.
type QuoteResponse struct {
	Status     string          `json:"status"`
	Quote      *QuoteBreakdown `json:"quote,omitempty"`
	Rejections []RejectionView `json:"rejections,omitempty"`
}

func MapQuote(q domainpricing.Quote) QuoteBreakdown {
	return QuoteBreakdown{
		Days:              q.Days,
		SpaceRatioPercent: q.SpaceRatioPercent,
		BasePrice:         q.BasePrice.Float(),
		ServiceFee:        q.ServiceFee.Float(),
		Insurance:         q.InsuranceFee.Float(),
		Deposit:           q.Deposit.Float(),
		TotalPrice:        q.Total.Float(),
		Currency:          q.Total.Currency,
		PolicyVersion:     q.PolicyVersion,
		InsuranceOffered:  q.InsuranceOffered,
	}
}

func MapRejection(r *domainbooking.Rejection) RejectionView {
	view := RejectionView{Code: string(r.Code), Message: RejectionMessage(r)}
	if r.Code == domainbooking.CodeInsufficientCapacity {
		available := r.Available
		view.Available = &available
	}
	return view
}

// RejectionMessage is the user facing text for a rejection code.
func RejectionMessage(r *domainbooking.Rejection) string {
	switch r.Code {
	case domainbooking.CodeInsufficientCapacity:
		return "Requested space exceeds what is available"
	case domainbooking.CodeOutsideAvailabilityWindow:
		return "Dates fall outside the listing's availability window"
	case domainbooking.CodePastBookingDeadline:
		return "The booking deadline for this listing has passed"
	case domainbooking.CodeSelfBookingNotAllowed:
		return "You cannot reserve your own listing"
	}
	return string(r.Code)
}
