package quicktable

import "errors"

var (
	ErrDuplicateTable   = errors.New("table already defined")
	ErrInvalidTable     = errors.New("invalid table")
	ErrInvalidDirection = errors.New("invalid sort direction")
	ErrTableNotFound    = errors.New("table not found")
	ErrUnknownTemplate  = errors.New("unknown template")
	ErrInvalidArgument  = errors.New("invalid template argument")
	ErrFieldNotFound    = errors.New("field not found in row")
	ErrInvalidValue     = errors.New("invalid value")
	ErrInvalidCatalog   = errors.New("invalid catalog")
)
