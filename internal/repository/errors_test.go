package repository

import (
	"errors"
	"fmt"
	"testing"

	"github.com/go-sql-driver/mysql"
	"github.com/stretchr/testify/require"
)

func TestIsDuplicateKey(t *testing.T) {
	dup := &mysql.MySQLError{Number: 1062, Message: "Duplicate entry '7-1' for key 'uniq_user_event'"}
	require.True(t, isDuplicateKey(dup))
	require.True(t, isDuplicateKey(fmt.Errorf("create registration: %w", dup)))

	require.False(t, isDuplicateKey(nil))
	require.False(t, isDuplicateKey(errors.New("plain error")))
	require.False(t, isDuplicateKey(&mysql.MySQLError{Number: 1213, Message: "Deadlock found"}))
}
