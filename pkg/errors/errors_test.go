package errors

import (
	stdErrors "errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
)

func TestMetadataFor(t *testing.T) {
	if got := MetadataFor(CodeRateLimit).HTTPStatus; got != http.StatusTooManyRequests {
		t.Fatalf("expected 429 got %d", got)
	}
	if got := MetadataFor(CodeUpstream).PublicMessage; got != "Invalid response from upstream provider" {
		t.Fatalf("unexpected upstream message %q", got)
	}
	// unknown codes degrade to the internal metadata
	if got := MetadataFor(Code("NOPE")).HTTPStatus; got != http.StatusInternalServerError {
		t.Fatalf("expected 500 fallback got %d", got)
	}
}

func TestWrapPreservesChain(t *testing.T) {
	cause := stdErrors.New("connection reset")
	err := Wrap(CodeInternal, cause, "listing transactions")

	if !stdErrors.Is(err, cause) {
		t.Fatal("wrapped cause should survive errors.Is")
	}
	if err.Error() != "INTERNAL_ERROR: listing transactions" {
		t.Fatalf("unexpected error string %q", err.Error())
	}
}

func TestAsFindsTypedErrorThroughWrapping(t *testing.T) {
	typed := New(CodeNotFound, "Transaction not found")
	wrapped := fmt.Errorf("handler: %w", typed)

	found := As(wrapped)
	if found == nil {
		t.Fatal("expected to find typed error")
	}
	if found.Code() != CodeNotFound {
		t.Fatalf("unexpected code %s", found.Code())
	}

	if As(stdErrors.New("plain")) != nil {
		t.Fatal("plain errors should not be typed")
	}
}

func TestWithDetails(t *testing.T) {
	err := New(CodeValidation, "validation failed").WithDetails(map[string]string{"title": "is required"})

	details, ok := err.Details().(map[string]string)
	if !ok {
		t.Fatalf("unexpected details type %T", err.Details())
	}
	if details["title"] != "is required" {
		t.Fatalf("unexpected details %v", details)
	}
}

func TestDumpSurfacesPostgresFields(t *testing.T) {
	pgErr := &pgconn.PgError{
		Code:           "23505",
		Message:        "duplicate key value violates unique constraint",
		ConstraintName: "transactions_pkey",
		TableName:      "transactions",
	}
	err := Wrap(CodeInternal, fmt.Errorf("creating transaction: %w", pgErr), "insert failed")

	dump := Dump(err)
	if dump.Code != CodeInternal {
		t.Fatalf("unexpected code %s", dump.Code)
	}
	if dump.PGCode != "23505" || dump.PGTable != "transactions" || dump.PGConstraint != "transactions_pkey" {
		t.Fatalf("pg fields not extracted: %+v", dump)
	}
	if len(dump.Chain) < 3 {
		t.Fatalf("expected full chain, got %v", dump.Chain)
	}
}

func TestDumpNil(t *testing.T) {
	if dump := Dump(nil); dump.TopMessage != "" || dump.Code != "" {
		t.Fatalf("expected zero dump, got %+v", dump)
	}
}
