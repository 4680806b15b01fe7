package shopper

import (
	"errors"
	"fmt"

	"github.com/speps/go-hashids/v2"
)

const codeAlphabet = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"

var ErrInvalidCode = errors.New("invalid confirmation code")

// Codes turns order ids into short public confirmation codes for the
// order-confirmation redirect, so raw ids are not exposed in URLs.
type Codes struct {
	h *hashids.HashID
}

func NewCodes(salt string) (*Codes, error) {
	hd := hashids.NewData()
	hd.Salt = salt
	hd.MinLength = 8
	hd.Alphabet = codeAlphabet

	h, err := hashids.NewWithData(hd)
	if err != nil {
		return nil, fmt.Errorf("confirmation codes: %w", err)
	}
	return &Codes{h: h}, nil
}

func (c *Codes) Encode(orderID int64) (string, error) {
	return c.h.EncodeInt64([]int64{orderID})
}

func (c *Codes) Decode(code string) (int64, error) {
	ids, err := c.h.DecodeInt64WithError(code)
	if err != nil || len(ids) != 1 {
		return 0, ErrInvalidCode
	}
	return ids[0], nil
}
