// Package validation holds the shared struct-tag validator and the form
// rules used by the bag and checkout gates.
package validation

import (
	"context"
	"reflect"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/go-playground/validator/v10/non-standard/validators"

	"github.com/ariefcatur/go-rental-checkout/internal/apperr"
)

var (
	zipRe   = regexp.MustCompile(`^[0-9]{5}(-[0-9]{4})?$`)
	emailRe = regexp.MustCompile(`\S+@\S+\.\S+`)
	cvvRe   = regexp.MustCompile(`^[0-9]{3,4}$`)
)

var validate = newValidator()

type nowKey struct{}

// WithNow pins the clock used by the notexpired rule.
func WithNow(ctx context.Context, now time.Time) context.Context {
	return context.WithValue(ctx, nowKey{}, now)
}

func nowFrom(ctx context.Context) time.Time {
	if t, ok := ctx.Value(nowKey{}).(time.Time); ok {
		return t
	}
	return time.Now()
}

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	// nama field mengikuti json tag, dipakai sebagai key di ValidationError
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})

	must(v.RegisterValidation("notblank", validators.NotBlank))
	must(v.RegisterValidation("zip", func(fl validator.FieldLevel) bool {
		return zipRe.MatchString(strings.TrimSpace(fl.Field().String()))
	}))
	must(v.RegisterValidation("phone10", func(fl validator.FieldLevel) bool {
		return countASCIIDigits(fl.Field().String()) == 10
	}))
	must(v.RegisterValidation("looseemail", func(fl validator.FieldLevel) bool {
		return emailRe.MatchString(fl.Field().String())
	}))
	must(v.RegisterValidation("card16", func(fl validator.FieldLevel) bool {
		card := strings.Join(strings.Fields(fl.Field().String()), "")
		return len(card) == 16 && allASCIIDigits(card)
	}))
	must(v.RegisterValidation("cvv", func(fl validator.FieldLevel) bool {
		return cvvRe.MatchString(strings.TrimSpace(fl.Field().String()))
	}))
	must(v.RegisterValidation("mmyy", func(fl validator.FieldLevel) bool {
		_, _, ok := parseExpiry(fl.Field().String())
		return ok
	}))
	must(v.RegisterValidationCtx("notexpired", func(ctx context.Context, fl validator.FieldLevel) bool {
		m, y, ok := parseExpiry(fl.Field().String())
		if !ok {
			return false
		}
		now := nowFrom(ctx)
		curYear, curMonth := now.Year()%100, int(now.Month())
		return y > curYear || (y == curYear && m >= curMonth)
	}))
	return v
}

func must(err error) {
	if err != nil {
		panic(err)
	}
}

// parseExpiry reads MM/YY. Only ASCII digits are accepted.
func parseExpiry(s string) (month, year int, ok bool) {
	mm, yy, found := strings.Cut(strings.TrimSpace(s), "/")
	if !found || mm == "" || len(yy) != 2 || !allASCIIDigits(mm) || !allASCIIDigits(yy) {
		return 0, 0, false
	}
	month, err := strconv.Atoi(mm)
	if err != nil || month < 1 || month > 12 {
		return 0, 0, false
	}
	year, _ = strconv.Atoi(yy)
	return month, year, true
}

func allASCIIDigits(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}

func countASCIIDigits(s string) int {
	n := 0
	for i := 0; i < len(s); i++ {
		if s[i] >= '0' && s[i] <= '9' {
			n++
		}
	}
	return n
}

// Struct runs the validate tags of v and translates failures into an
// *apperr.ValidationError using msgs (see apperr.FromValidator).
func Struct(ctx context.Context, v any, msgs apperr.Messages) error {
	return apperr.FromValidator(validate.StructCtx(ctx, v), msgs)
}
