package schema

import (
	"errors"
)

var (
	ErrNotExist     = errors.New("not_exist_record")
	ErrNotFound     = errors.New("not_found")
	ErrExist        = errors.New("s3_bucket_exist")
	ErrNotImplement = errors.New("method not implement")

	ErrInvalidAddress = errors.New("invalid_address")
	ErrUnauthorized   = errors.New("unauthorized")
	ErrAlreadyExists  = errors.New("already_exists")
	ErrZeroAmount     = errors.New("zero_amount")

	ErrLimitExceeded       = errors.New("limit_exceeded")
	ErrBalanceCapExceeded  = errors.New("balance_cap_exceeded")
	ErrHardCapExceeded     = errors.New("hard_cap_exceeded")
	ErrBountyLimitExceeded = errors.New("bounty_limit_exceeded")
	ErrBatchLimitExceeded  = errors.New("batch_limit_exceeded")

	ErrUserBanned          = errors.New("user_banned")
	ErrUserBlacklisted     = errors.New("user_blacklisted")
	ErrInsufficientBalance = errors.New("insufficient_balance")

	ErrOutsideCrowdsalePeriod = errors.New("outside_crowdsale_period")
	ErrNotRefunding           = errors.New("not_refunding")
	ErrContractPaused         = errors.New("contract_paused")
	ErrAlreadyFinalized       = errors.New("already_finalized")

	ErrRateOutOfBounds     = errors.New("rate_out_of_bounds")
	ErrPaymentMismatch     = errors.New("payment_mismatch")
	ErrBelowMinimum        = errors.New("below_minimum_purchase")
	ErrBalanceNotOverLimit = errors.New("balance_not_over_limit")
)
