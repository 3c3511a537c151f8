package storage

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

const (
	errorMessageMutatingQuery     = "storage: verification queries must be read-only"
	errorMessageMissingDatabase   = "storage: missing verification database"
	errorMessageProjectionQuery   = "storage: projection query"
	errorMessageProjectionColumns = "storage: projection columns"
	errorMessageProjectionScan    = "storage: projection scan"
	errorMessageCountQuery        = "storage: count query"

	canonicalNullValue      = "\x00NULL"
	canonicalCellSeparator  = "\x1f"
	canonicalRowSeparator   = "\x1e"
	readOnlyStatementPrefix = "select"
	readOnlyCommonPrefix    = "with"

	logEventConfigurationHash = "configuration_hash"
	logEventRowCount          = "row_count"
	logFieldQuery             = "query"
	logFieldRows              = "rows"
	logFieldHash              = "hash"
	logFieldCount             = "count"
)

var (
	// ErrMutatingQuery indicates a verification query that is not a plain SELECT.
	ErrMutatingQuery = errors.New(errorMessageMutatingQuery)
	// ErrMissingDatabase indicates a verification store constructed without a database.
	ErrMissingDatabase = errors.New(errorMessageMissingDatabase)
)

var mutatingKeywords = []string{"insert", "update", "delete", "drop", "alter", "create", "truncate", "replace", "grant", "revoke", "attach", "pragma"}

// Query is a read-only parameterized SQL statement.
type Query struct {
	Description string
	SQL         string
	Args        []interface{}
}

// Projection is a query whose result rows form the canonical view of persisted configuration.
// Its columns must not include surrogate identifiers.
type Projection Query

// CountQuery is a query returning a single integer.
type CountQuery Query

// VerificationStore runs read-only verification queries against the application database.
type VerificationStore struct {
	database *gorm.DB
	logger   *zap.Logger
}

// NewVerificationStore wraps a database connection.
func NewVerificationStore(database *gorm.DB, logger *zap.Logger) (*VerificationStore, error) {
	if database == nil {
		return nil, ErrMissingDatabase
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &VerificationStore{database: database, logger: logger}, nil
}

// ConfigurationHash returns the digest of the projection's rows.
func (store *VerificationStore) ConfigurationHash(ctx context.Context, projection Projection) (string, error) {
	rows, rowsErr := store.ProjectionRows(ctx, projection)
	if rowsErr != nil {
		return "", rowsErr
	}
	hash := HashRows(rows)
	store.logger.Debug(logEventConfigurationHash,
		zap.String(logFieldQuery, projection.Description),
		zap.Int(logFieldRows, len(rows)),
		zap.String(logFieldHash, hash),
	)
	return hash, nil
}

// ProjectionRows returns the projection's rows rendered canonically.
func (store *VerificationStore) ProjectionRows(ctx context.Context, projection Projection) ([][]string, error) {
	if guardErr := ensureReadOnly(projection.SQL); guardErr != nil {
		return nil, guardErr
	}

	sqlRows, queryErr := store.database.WithContext(ctx).Raw(projection.SQL, projection.Args...).Rows()
	if queryErr != nil {
		return nil, fmt.Errorf("%s %q: %w", errorMessageProjectionQuery, projection.Description, queryErr)
	}
	defer sqlRows.Close()

	columns, columnsErr := sqlRows.Columns()
	if columnsErr != nil {
		return nil, fmt.Errorf("%s: %w", errorMessageProjectionColumns, columnsErr)
	}

	var canonicalRows [][]string
	for sqlRows.Next() {
		values := make([]interface{}, len(columns))
		destinations := make([]interface{}, len(columns))
		for index := range values {
			destinations[index] = &values[index]
		}
		if scanErr := sqlRows.Scan(destinations...); scanErr != nil {
			return nil, fmt.Errorf("%s: %w", errorMessageProjectionScan, scanErr)
		}
		canonicalRow := make([]string, len(values))
		for index, value := range values {
			canonicalRow[index] = CanonicalValue(value)
		}
		canonicalRows = append(canonicalRows, canonicalRow)
	}
	if iterationErr := sqlRows.Err(); iterationErr != nil {
		return nil, fmt.Errorf("%s: %w", errorMessageProjectionScan, iterationErr)
	}
	return canonicalRows, nil
}

// CountRows runs a count query.
func (store *VerificationStore) CountRows(ctx context.Context, query CountQuery) (int64, error) {
	if guardErr := ensureReadOnly(query.SQL); guardErr != nil {
		return 0, guardErr
	}
	var count int64
	if countErr := store.database.WithContext(ctx).Raw(query.SQL, query.Args...).Scan(&count).Error; countErr != nil {
		return 0, fmt.Errorf("%s %q: %w", errorMessageCountQuery, query.Description, countErr)
	}
	store.logger.Debug(logEventRowCount, zap.String(logFieldQuery, query.Description), zap.Int64(logFieldCount, count))
	return count, nil
}

// HashRows digests canonical rows. Rows are sorted first so the digest does not depend on the
// order the database returned them in.
func HashRows(rows [][]string) string {
	encodedRows := make([]string, 0, len(rows))
	for _, row := range rows {
		encodedRows = append(encodedRows, strings.Join(row, canonicalCellSeparator))
	}
	sort.Strings(encodedRows)

	digest := sha256.New()
	for _, encodedRow := range encodedRows {
		digest.Write([]byte(encodedRow))
		digest.Write([]byte(canonicalRowSeparator))
	}
	return hex.EncodeToString(digest.Sum(nil))
}

// CanonicalValue renders a scanned column value so equal values from different drivers hash equally.
func CanonicalValue(value interface{}) string {
	switch typedValue := value.(type) {
	case nil:
		return canonicalNullValue
	case []byte:
		return string(typedValue)
	case string:
		return typedValue
	case int64:
		return strconv.FormatInt(typedValue, 10)
	case int32:
		return strconv.FormatInt(int64(typedValue), 10)
	case int:
		return strconv.Itoa(typedValue)
	case float64:
		if typedValue == float64(int64(typedValue)) {
			return strconv.FormatInt(int64(typedValue), 10)
		}
		return strconv.FormatFloat(typedValue, 'g', -1, 64)
	case bool:
		if typedValue {
			return "1"
		}
		return "0"
	case time.Time:
		return typedValue.UTC().Format(time.RFC3339Nano)
	default:
		return fmt.Sprint(typedValue)
	}
}

func ensureReadOnly(statement string) error {
	normalized := strings.ToLower(strings.TrimSpace(statement))
	normalized = strings.TrimSuffix(normalized, ";")
	if strings.Contains(normalized, ";") {
		return fmt.Errorf("%w: multiple statements", ErrMutatingQuery)
	}
	if !strings.HasPrefix(normalized, readOnlyStatementPrefix) && !strings.HasPrefix(normalized, readOnlyCommonPrefix) {
		return fmt.Errorf("%w: %.40q", ErrMutatingQuery, statement)
	}
	for _, token := range strings.FieldsFunc(normalized, isQueryTokenSeparator) {
		for _, keyword := range mutatingKeywords {
			if token == keyword {
				return fmt.Errorf("%w: contains %s", ErrMutatingQuery, keyword)
			}
		}
	}
	return nil
}

func isQueryTokenSeparator(character rune) bool {
	return !(character == '_' || (character >= 'a' && character <= 'z') || (character >= '0' && character <= '9'))
}

// BoundProjection is a projection fixed to a store, hashed on demand.
type BoundProjection struct {
	store      *VerificationStore
	projection Projection
}

// Bind fixes a projection to the store.
func (store *VerificationStore) Bind(projection Projection) BoundProjection {
	return BoundProjection{store: store, projection: projection}
}

// ConfigurationHash hashes the bound projection.
func (bound BoundProjection) ConfigurationHash(ctx context.Context) (string, error) {
	return bound.store.ConfigurationHash(ctx, bound.projection)
}
