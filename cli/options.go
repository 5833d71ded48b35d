package cli

import (
	"errors"
	"reflect"
	"time"

	"github.com/alecthomas/kong"

	"go.hackfix.me/reqbind/xtime"
)

// ExpirationMapper parses an expiration given as a duration from now or as an
// RFC 3339 timestamp.
type ExpirationMapper struct {
	timeNow func() time.Time
}

var _ kong.Mapper = (*ExpirationMapper)(nil)

// Decode implements the kong.Mapper interface.
func (em ExpirationMapper) Decode(kctx *kong.DecodeContext, target reflect.Value) error {
	var value string
	err := kctx.Scan.PopValueInto("expiration", &value)
	if err != nil {
		return err
	}

	t, err := parseExpiration(value, em.timeNow().UTC())
	if err != nil {
		return err
	}

	target.Set(reflect.ValueOf(t))

	return nil
}

func parseExpiration(value string, now time.Time) (time.Time, error) {
	t, err := time.Parse(time.RFC3339, value)
	if err != nil {
		dur, derr := xtime.ParseDuration(value)
		if derr != nil {
			return time.Time{}, derr
		}
		t = now.Add(dur)
	}

	if t.Before(now) {
		return time.Time{}, errors.New("expiration time is in the past")
	}

	return t, nil
}
