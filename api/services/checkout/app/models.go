package app

import (
	"fmt"

	"github.com/tbeaudouin05/admin-checkout/api/services/checkout/backend"
)

// PackageInfo is the priced package being bought. Two packages with equal
// fields are the same reference.
type PackageInfo struct {
	Price  int64 `json:"price"`
	Member int64 `json:"member"`
}

// CurrentUser is the snapshot of the buying admin taken when the checkout starts.
type CurrentUser struct {
	Email                  string `json:"email"`
	EmployeeLimitTotal     int64  `json:"employeeLimitTotal"`
	EmployeeLimitRemaining int64  `json:"employeeLimitRemaining"`
}

// CurrentUserFrom keeps the fields of a backend user the flow reads.
func CurrentUserFrom(u backend.User) CurrentUser {
	return CurrentUser{
		Email:                  u.Email,
		EmployeeLimitTotal:     u.EmployeeLimitTotal,
		EmployeeLimitRemaining: u.EmployeeLimitRemaining,
	}
}

// LimitUpdateFor adds the package's member count to both user limits. The
// result overwrites the backend values.
func LimitUpdateFor(user CurrentUser, pkg PackageInfo) backend.LimitUpdate {
	return backend.LimitUpdate{
		EmployeeLimitTotal:     user.EmployeeLimitTotal + pkg.Member,
		EmployeeLimitRemaining: user.EmployeeLimitRemaining + pkg.Member,
	}
}

// PaymentResult is what the payment SDK reported for a confirmation.
type PaymentResult struct {
	ID     string `json:"id"`
	Status string `json:"status"`
}

// FormView is everything the checkout form renders.
type FormView struct {
	Phase       Phase  `json:"phase"`
	PayLabel    string `json:"payLabel"`
	PayDisabled bool   `json:"payDisabled"`
	Processing  bool   `json:"processing"`
	CardError   string `json:"cardError,omitempty"`
	Price       int64  `json:"price"`
	Member      int64  `json:"member"`
}

func payLabel(price int64) string {
	return fmt.Sprintf("Pay %d$", price)
}

// Outcome is the result of one Submit call.
type Outcome struct {
	View    FormView      `json:"view"`
	Payment PaymentResult `json:"payment"`
	// Redirect is set once the limit update went through.
	Redirect string `json:"redirect,omitempty"`
	// FollowUpErrors lists post-payment backend calls that failed and were queued.
	FollowUpErrors []string `json:"followUpErrors,omitempty"`
}
