package utils

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"bitbucket.org/mmdatafocus/stocks_backend/config"
	"github.com/bsm/redislock"
	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"
	"github.com/ttacon/libphonenumber"
)

var CountryCode = "IR"

var validate = validator.New()

// ValidateStruct runs go-playground validation tags on an input struct and
// returns a flat field=>tag map for failed rules.
func ValidateStruct(input interface{}) error {
	if err := validate.Struct(input); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			parts := make([]string, 0, len(verrs))
			for _, ve := range verrs {
				parts = append(parts, fmt.Sprintf("%s (%s)", ve.Field(), ve.Tag()))
			}
			return fmt.Errorf("invalid input: %s", strings.Join(parts, ", "))
		}
		return err
	}
	return nil
}

func IsValidEmail(email string) bool {
	pattern := `^[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}$`
	regex := regexp.MustCompile(pattern)
	return regex.MatchString(email)
}

func ValidatePhoneNumber(phoneNumber, countryCode string) error {
	p, err := libphonenumber.Parse(phoneNumber, countryCode)
	if err != nil {
		return err
	}

	if !libphonenumber.IsValidNumber(p) {
		return fmt.Errorf("phone number is not valid")
	}

	return nil
}

// ParseDecimal converts a string to a decimal.Decimal value.
func ParseDecimal(value string) (decimal.Decimal, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return decimal.Zero, errors.New("empty decimal string")
	}

	dec, err := decimal.NewFromString(value)
	if err != nil {
		return decimal.Zero, err
	}

	return dec, nil
}

func NewTrue() *bool {
	b := true
	return &b
}

func NewFalse() *bool {
	b := false
	return &b
}

// ItemStockLock serializes writers of one item's movement set across
// processes. Returns a release func. When no Redis lock client is configured
// (single-process deployments, tests) it returns a no-op release: the
// database transaction is then the only serialization point, which is enough
// for one process because every stock check and append shares a transaction.
func ItemStockLock(ctx context.Context, itemId int, moduleName string, functionName string) (func(), error) {
	locker := config.GetRedisLock()
	if locker == nil {
		return func() {}, nil
	}
	lockKey := fmt.Sprintf("itemStockLock:%d", itemId)
	lock, err := locker.Obtain(ctx, lockKey, 30*time.Second, nil)
	if err == redislock.ErrNotObtained {
		config.LogError(config.GetLogger(), moduleName, functionName, "Could not obtain lock for item", itemId, err)
		return nil, errors.New("could not obtain stock lock for item")
	} else if err != nil {
		config.LogError(config.GetLogger(), moduleName, functionName, "Error obtaining lock for item", itemId, err)
		return nil, err
	}
	return func() { _ = lock.Release(ctx) }, nil
}
