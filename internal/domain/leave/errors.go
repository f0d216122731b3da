package leave

import "errors"

var (
	ErrLeaveRequestNotFound         = errors.New("Leave request not found")
	ErrLeavePolicyNotFound          = errors.New("Leave policy not found")
	ErrLeaveBalanceNotFound         = errors.New("Leave balance not found")
	ErrLeaveBalanceExists           = errors.New("Leave balance already exists")
	ErrInsufficientQuota            = errors.New("Insufficient leave quota")
	ErrLeaveRequestAlreadyProcessed = errors.New("Leave request already processed")
	ErrPolicyNotApplicable          = errors.New("Leave policy does not apply to employee")
	ErrInvalidAccrualType           = errors.New("Invalid accrual type")
	ErrBalanceConflict              = errors.New("Leave balance changed concurrently, retry with a fresh read")
	ErrSelfDecision                 = errors.New("Cannot approve or reject your own leave request")
)
