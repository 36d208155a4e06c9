package repository

import "errors"

var (
	// ErrNotFound: la entidad no existe. Los stores lo devuelven tal cual
	// para que los services lo traduzcan a su propio error de dominio.
	ErrNotFound = errors.New("repository: not found")

	// ErrConflict: violación de unicidad (ej: grant duplicado).
	ErrConflict = errors.New("repository: conflict")
)
