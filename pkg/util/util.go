package util

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"time"
)

// error

type Error struct {
	orig error
	msg  string
	code error
}

func (e *Error) Error() string {
	if e.orig != nil {
		return fmt.Sprintf("%s", e.msg)
	}

	return e.msg
}

func (e *Error) Unwrap() error {
	return e.orig
}

func WrapErrorf(orig error, code error, format string, a ...interface{}) error {
	return &Error{
		code: code,
		orig: orig,
		msg:  fmt.Sprintf(format, a...),
	}
}

func (e *Error) Code() error {
	return e.code
}

var (
	ErrInternalServerError = errors.New("internal Server Error")
	ErrNotFound            = errors.New("your requested Item is not found")
	ErrConflict            = errors.New("your Item already exist")
	ErrBadParamInput       = errors.New("given Param is not valid")
)

var MessageInternalServerError string = "internal server error"

func SecondsToMinutes(seconds float64) float64 {
	return seconds / 60
}

func DegreeToRadians(angle float64) float64 {
	return angle * (math.Pi / 180.0)
}

func RadiansToDegree(rad float64) float64 {
	return 180.0 * rad / math.Pi
}

func StringToFloat64(str string) (float64, error) {
	val, err := strconv.ParseFloat(str, 64)
	if err != nil {
		return 0, err
	}
	return val, nil
}

func RoundFloat(val float64, precision uint) float64 {
	ratio := math.Pow(10, float64(precision))
	return math.Round(val*ratio) / ratio
}

// FormatDegree renders a coordinate component the way avoidance-area query
// strings expect, without trailing float noise. rounded to 6 decimals first.
func FormatDegree(val float64) string {
	return strconv.FormatFloat(RoundFloat(val, 6), 'f', -1, 64)
}

const observationTimeLayout = "02/01/2006 03:04:05 PM"

// SGTime returns the current wall-clock time in Singapore, formatted the
// way observation and notification timestamps are stored.
func SGTime() string {
	loc, err := time.LoadLocation("Asia/Singapore")
	if err != nil {
		// fixed UTC+8, no DST
		loc = time.FixedZone("SGT", 8*60*60)
	}
	return time.Now().In(loc).Format(observationTimeLayout)
}

func MinInt(a, b int) int {
	if a < b {
		return a
	}
	return b
}

func MaxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}
