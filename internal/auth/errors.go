package auth

import "errors"

// Taxonomía de errores del flujo de autenticación. El transporte los
// mapea a status codes; acá solo importa la distinción semántica.
var (
	// ErrInvalidServiceID: el service_id vino vacío o malformado. Se
	// rechaza antes de tocar cualquier store.
	ErrInvalidServiceID = errors.New("auth: invalid service id format")

	ErrServiceNotFound = errors.New("auth: service provider not found")

	// ErrInvalidCredentials cubre usuario inexistente y password
	// equivocada por igual: no se filtra cuál fue.
	ErrInvalidCredentials = errors.New("auth: invalid credentials")

	// ErrMFARequired: el usuario exige MFA y no vino código. Distinto de
	// ErrMFAInvalid a propósito: el cliente necesita saber si tiene que
	// pedir el código o si el que mandó no sirvió.
	ErrMFARequired = errors.New("auth: mfa token required")
	ErrMFAInvalid  = errors.New("auth: invalid mfa token")

	// ErrNotAllowed: credenciales válidas pero sin grant activo para el
	// tenant. Autenticación y autorización fallan distinto.
	ErrNotAllowed = errors.New("auth: user not allowed for this service")

	ErrUserNotFound = errors.New("auth: user not found")

	// ErrInvalidCode: código passwordless que no validó, sin distinguir
	// causa (equivocado, vencido, usado, intentos agotados).
	ErrInvalidCode = errors.New("auth: invalid or expired code")

	// ErrInvalidToken: refresh que no verificó — firma ajena, vencido,
	// tipo equivocado o sujeto irresoluble. Uniforme a propósito.
	ErrInvalidToken = errors.New("auth: invalid token")

	// ErrSecretUnavailable: el tenant existe pero no tiene secreto de
	// firma usable. Error del lado del servidor, no del cliente.
	ErrSecretUnavailable = errors.New("auth: tenant signing secret unavailable")
)
