package postgres

import (
	"database/sql"
	"errors"

	sonic "github.com/bytedance/sonic"
	"github.com/lib/pq"
)

const (
	uniqueViolationCode  = "23505"
	inviteCodeConstraint = "pools_invite_code_key"
)

func isNotFound(err error) bool {
	return errors.Is(err, sql.ErrNoRows)
}

func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return pqErr.Code == uniqueViolationCode
	}
	return false
}

func isUniqueViolationOn(err error, constraint string) bool {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return pqErr.Code == uniqueViolationCode && pqErr.Constraint == constraint
	}
	return false
}

func encodeJSON(value any) (string, error) {
	encoded, err := sonic.Marshal(value)
	if err != nil {
		return "", err
	}
	return string(encoded), nil
}

func decodeJSON(raw string, out any) error {
	if raw == "" {
		return nil
	}
	return sonic.Unmarshal([]byte(raw), out)
}

func nullString(value string) sql.NullString {
	return sql.NullString{String: value, Valid: value != ""}
}
