package discount

import (
	"strconv"

	"github.com/Alijeyrad/simorq_booking/internal/repo"
	"github.com/Alijeyrad/simorq_booking/internal/service/catalog"
)

// criterion checks one criteria type against a request. A nil return means
// the code applies.
type criterion func(code *repo.DiscountCode, req Request) *Rejection

var criteria = map[repo.CriteriaType]criterion{
	repo.CriteriaAll:             func(*repo.DiscountCode, Request) *Rejection { return nil },
	repo.CriteriaService:         serviceCriterion,
	repo.CriteriaCategory:        categoryCriterion,
	repo.CriteriaMinimumAmount:   minimumAmountCriterion,
	repo.CriteriaReturningClient: returningClientCriterion,
}

func serviceCriterion(code *repo.DiscountCode, req Request) *Rejection {
	if code.ServiceID == req.Selection.ServiceID {
		return nil
	}
	name := code.ServiceName
	if name == "" {
		name = code.ServiceID
	}
	return rejectf(ErrServiceMismatch, "This code is only valid for %s", name)
}

func categoryCriterion(code *repo.DiscountCode, req Request) *Rejection {
	want := catalog.Slugify(code.CategorySlug)
	if want != "" && want == catalog.Slugify(req.Selection.Category) {
		return nil
	}
	return rejectf(ErrCategoryMismatch, "This code is only valid for %s services", code.CategorySlug)
}

func minimumAmountCriterion(code *repo.DiscountCode, req Request) *Rejection {
	if req.OriginalPrice >= code.MinimumAmount {
		return nil
	}
	return rejectf(ErrBelowMinimum, "A minimum booking amount of %s is required for this code", formatAmount(code.MinimumAmount))
}

func returningClientCriterion(code *repo.DiscountCode, req Request) *Rejection {
	need := code.MinimumAppointments
	if need <= 0 {
		need = 1
	}
	if req.PriorAppointments >= need {
		return nil
	}
	if need == 1 {
		return rejectf(ErrNotReturningClient, "This code is only available to returning clients")
	}
	return rejectf(ErrNotReturningClient, "This code is only available to clients with at least %d previous appointments", need)
}

func formatAmount(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
