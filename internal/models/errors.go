package models

import "errors"

var (
	ErrInvalidSymbol    = errors.New("invalid symbol")
	ErrInvalidPrice     = errors.New("invalid price")
	ErrInvalidTimestamp = errors.New("invalid timestamp")
	ErrInvalidBar       = errors.New("invalid bar (high < low)")
	ErrInvalidVolume    = errors.New("invalid volume")
	ErrNoBars           = errors.New("no bars supplied")
	ErrUnorderedBars    = errors.New("bars are not in chronological order")
	ErrInvalidStrategy  = errors.New("invalid strategy")
	ErrUnknownStrategy  = errors.New("unknown strategy")
	ErrMisaligned       = errors.New("series are not aligned")
	ErrInvalidSignalID  = errors.New("invalid signal ID")
	ErrNotFound         = errors.New("not found")
)
