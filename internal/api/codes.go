package api

// Stable error codes carried in the envelope's error.code field.
const (
	CodeInvalidPhone            = "invalid_phone"
	CodePhoneAlreadyUsed        = "phone_already_used"
	CodePhoneNotFound           = "phone_not_found"
	CodeInvalidOTP              = "invalid_otp"
	CodeAccountAlreadyActivated = "account_already_activated"
	CodeOTPExpired              = "otp_expired"
	CodeTokenExpired            = "token_expired"
	CodeInvalidToken            = "invalid_token"
	CodeInvalidCredentials      = "invalid_credentials"
	CodeUnauthenticated         = "unauthenticated"
	CodeTooManyRequests         = "too_many_requests"
	CodeInternal                = "internal_server_error"
)
