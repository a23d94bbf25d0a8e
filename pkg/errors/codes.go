package errors

import (
	"net/http"
	"strings"
)

// ErrorCode is a string representation of a specific error condition.
type ErrorCode string

func (c ErrorCode) String() string {
	return string(c)
}

// Common error codes
const (
	ErrCodeInternal           ErrorCode = "COMMON_001"
	ErrCodeBadRequest         ErrorCode = "COMMON_002"
	ErrCodeNotFound           ErrorCode = "COMMON_003"
	ErrCodeConflict           ErrorCode = "COMMON_004"
	ErrCodeTimeout            ErrorCode = "COMMON_005"
	ErrCodeValidation         ErrorCode = "COMMON_006"
	ErrCodeSerialization      ErrorCode = "COMMON_007"
	ErrCodeServiceUnavailable ErrorCode = "COMMON_008"
	ErrCodeCacheError         ErrorCode = "COMMON_009"
	ErrCodeNotImplemented     ErrorCode = "COMMON_010"
)

// Docking engine error codes
const (
	// ErrCodeEngineFailure: the engine ran but produced no score.
	ErrCodeEngineFailure ErrorCode = "DOCK_001"
	// ErrCodeEngineTimeout: the engine exceeded its wall-clock budget.
	ErrCodeEngineTimeout ErrorCode = "DOCK_002"
	// ErrCodeEngineUnavailable: the engine binary could not be started.
	ErrCodeEngineUnavailable ErrorCode = "DOCK_003"
)

// Storage error codes
const (
	// ErrCodeStorageTimeout: an artifact never became visible within the
	// configured polling budget.  Distinct from DOCK_001 so callers can tell
	// "engine never ran" from "ran but the result never propagated".
	ErrCodeStorageTimeout ErrorCode = "STOR_001"
	ErrCodeStorageError   ErrorCode = "STOR_002"
)

// Structure file error codes
const (
	ErrCodeMalformedRecord      ErrorCode = "STRUCT_001"
	ErrCodeInvalidStructureType ErrorCode = "STRUCT_002"
	ErrCodeEmptyPose            ErrorCode = "STRUCT_003"
	ErrCodeEmptyTarget          ErrorCode = "STRUCT_004"
	ErrCodeConversionFailed     ErrorCode = "STRUCT_005"
)

// Chemistry error codes
const (
	ErrCodeInvalidSMILES  ErrorCode = "CHEM_001"
	ErrCodeIdentityFailed ErrorCode = "CHEM_002"
	ErrCodeUnknownTarget  ErrorCode = "CHEM_003"
)

// Messaging error codes
const (
	ErrCodeQueueError ErrorCode = "MSG_001"
)

// Aliases kept short for call sites.
const (
	CodeInternal     = ErrCodeInternal
	CodeInvalidParam = ErrCodeBadRequest
	CodeNotFound     = ErrCodeNotFound
	CodeConflict     = ErrCodeConflict
	CodeUnknown      = ErrorCode("UNKNOWN")
	CodeOK           = ErrorCode("OK")
)

// ErrorCodeHTTPStatus maps ErrorCodes to HTTP status codes.
var ErrorCodeHTTPStatus = map[ErrorCode]int{
	ErrCodeInternal:           http.StatusInternalServerError,
	ErrCodeBadRequest:         http.StatusBadRequest,
	ErrCodeNotFound:           http.StatusNotFound,
	ErrCodeConflict:           http.StatusConflict,
	ErrCodeTimeout:            http.StatusGatewayTimeout,
	ErrCodeValidation:         http.StatusUnprocessableEntity,
	ErrCodeSerialization:      http.StatusInternalServerError,
	ErrCodeServiceUnavailable: http.StatusServiceUnavailable,
	ErrCodeCacheError:         http.StatusInternalServerError,
	ErrCodeNotImplemented:     http.StatusNotImplemented,

	ErrCodeEngineFailure:     http.StatusBadGateway,
	ErrCodeEngineTimeout:     http.StatusGatewayTimeout,
	ErrCodeEngineUnavailable: http.StatusServiceUnavailable,

	ErrCodeStorageTimeout: http.StatusGatewayTimeout,
	ErrCodeStorageError:   http.StatusInternalServerError,

	ErrCodeMalformedRecord:      http.StatusInternalServerError,
	ErrCodeInvalidStructureType: http.StatusBadRequest,
	ErrCodeEmptyPose:            http.StatusInternalServerError,
	ErrCodeEmptyTarget:          http.StatusInternalServerError,
	ErrCodeConversionFailed:     http.StatusInternalServerError,

	ErrCodeInvalidSMILES:  http.StatusBadRequest,
	ErrCodeIdentityFailed: http.StatusInternalServerError,
	ErrCodeUnknownTarget:  http.StatusNotFound,

	ErrCodeQueueError: http.StatusInternalServerError,
}

// ErrorCodeMessage maps ErrorCodes to default messages.
var ErrorCodeMessage = map[ErrorCode]string{
	ErrCodeInternal:           "internal server error",
	ErrCodeBadRequest:         "bad request",
	ErrCodeNotFound:           "resource not found",
	ErrCodeConflict:           "resource conflict",
	ErrCodeTimeout:            "request timeout",
	ErrCodeValidation:         "validation failed",
	ErrCodeSerialization:      "serialization failed",
	ErrCodeServiceUnavailable: "service unavailable",
	ErrCodeCacheError:         "cache error",
	ErrCodeNotImplemented:     "not implemented",

	ErrCodeEngineFailure:     "docking engine produced no score",
	ErrCodeEngineTimeout:     "docking engine timed out",
	ErrCodeEngineUnavailable: "docking engine unavailable",

	ErrCodeStorageTimeout: "docking output never became visible in storage",
	ErrCodeStorageError:   "storage operation failed",

	ErrCodeMalformedRecord:      "malformed structure record",
	ErrCodeInvalidStructureType: "unrecognized structure type",
	ErrCodeEmptyPose:            "selected pose contains no atoms",
	ErrCodeEmptyTarget:          "target structure contains no atoms",
	ErrCodeConversionFailed:     "target structure conversion failed",

	ErrCodeInvalidSMILES:  "invalid SMILES format",
	ErrCodeIdentityFailed: "failed to derive structure identifier",
	ErrCodeUnknownTarget:  "unknown docking target",

	ErrCodeQueueError: "message queue error",
}

// HTTPStatusForCode returns the HTTP status code for an ErrorCode.
func HTTPStatusForCode(code ErrorCode) int {
	if status, ok := ErrorCodeHTTPStatus[code]; ok {
		return status
	}
	return http.StatusInternalServerError
}

// DefaultMessageForCode returns the default message for an ErrorCode.
func DefaultMessageForCode(code ErrorCode) string {
	if msg, ok := ErrorCodeMessage[code]; ok {
		return msg
	}
	return "unknown error"
}

// IsClientError returns true if the ErrorCode corresponds to a 4xx HTTP status.
func IsClientError(code ErrorCode) bool {
	status := HTTPStatusForCode(code)
	return status >= 400 && status < 500
}

// IsServerError returns true if the ErrorCode corresponds to a 5xx HTTP status.
func IsServerError(code ErrorCode) bool {
	status := HTTPStatusForCode(code)
	return status >= 500 && status < 600
}

// ModuleForCode returns the module prefix of an ErrorCode.
func ModuleForCode(code ErrorCode) string {
	parts := strings.Split(string(code), "_")
	if len(parts) > 0 && parts[0] != "" {
		return parts[0]
	}
	return "UNKNOWN"
}
