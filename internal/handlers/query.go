package handlers

import (
	"fmt"
	"net/url"
	"strconv"

	"github.com/GregMSThompson/cardwise-backend/internal/errs"
)

func queryBool(q url.Values, key string) (bool, error) {
	v := q.Get(key)
	if v == "" {
		return false, nil
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return false, errs.NewValidationError(fmt.Sprintf("%s must be true or false", key))
	}
	return b, nil
}

func queryInt(q url.Values, key string) (int, error) {
	v := q.Get(key)
	if v == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, errs.NewValidationError(fmt.Sprintf("%s must be a number", key))
	}
	return n, nil
}

func queryString(q url.Values, key string) *string {
	if v := q.Get(key); v != "" {
		return &v
	}
	return nil
}
