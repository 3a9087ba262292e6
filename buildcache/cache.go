// Package buildcache persists analyzed-module fingerprints to serialized
// IR bundles, so an embedder can skip re-running the full analyzer + IR
// builder pipeline when nothing relevant changed: a gorm-backed table
// keyed by a content fingerprint instead of a session ID, with an
// open-and-auto-migrate lifecycle.
package buildcache

import (
	"bytes"
	"crypto/sha256"
	"encoding/gob"
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/dscript/dsc/ir"
)

func init() {
	// Every concrete Expr/TypeRef/Stmt variant must be registered before a
	// Bundle containing one can cross gob.Encode/Decode, since they are
	// stored behind the Expr/TypeRef/Stmt interfaces.
	gob.Register(&ir.IntLiteral{})
	gob.Register(&ir.BoolLiteral{})
	gob.Register(&ir.StringLiteral{})
	gob.Register(&ir.UnaryExpr{})
	gob.Register(&ir.BinaryExpr{})
	gob.Register(&ir.TernaryExpr{})
	gob.Register(&ir.FieldAccess{})
	gob.Register(&ir.ArrayIndex{})
	gob.Register(&ir.FunctionCall{})
	gob.Register(&ir.ParameterRef{})
	gob.Register(&ir.FieldRef{})
	gob.Register(&ir.ConstantRef{})

	gob.Register(&ir.PrimitiveTypeRef{})
	gob.Register(&ir.BooleanTypeRef{})
	gob.Register(&ir.StringTypeRef{})
	gob.Register(&ir.BitfieldTypeRef{})
	gob.Register(&ir.FixedArrayTypeRef{})
	gob.Register(&ir.VariableArrayTypeRef{})
	gob.Register(&ir.RangedArrayTypeRef{})
	gob.Register(&ir.NamedTypeRef{})

	gob.Register(&ir.ReturnStmt{})
	gob.Register(&ir.ExprStmt{})
}

// Entry is the row persisted per cached bundle.
type Entry struct {
	ID          string `gorm:"primaryKey;type:varchar(36)"`
	Fingerprint string `gorm:"uniqueIndex;type:varchar(64);not null"`
	ModuleName  string `gorm:"type:varchar(255);index"`
	Payload     []byte `gorm:"type:blob;not null"`
	CreatedAt   time.Time
}

// Store caches IR bundles by fingerprint.
type Store struct {
	db *gorm.DB
}

// Open connects to (creating if absent) a SQLite-backed cache at path and
// runs its migration.
func Open(path string) (*Store, error) {
	if dir := filepath.Dir(path); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("creating build cache directory: %w", err)
		}
	}

	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{})
	if err != nil {
		return nil, fmt.Errorf("opening build cache: %w", err)
	}
	if err := db.AutoMigrate(&Entry{}); err != nil {
		return nil, fmt.Errorf("migrating build cache: %w", err)
	}
	return &Store{db: db}, nil
}

// Close releases the underlying connection.
func (s *Store) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// Get returns the cached bundle for fingerprint, or ok=false on a miss.
func (s *Store) Get(fingerprint string) (bundle *ir.Bundle, ok bool, err error) {
	var entry Entry
	result := s.db.Where("fingerprint = ?", fingerprint).First(&entry)
	if result.Error != nil {
		if result.Error == gorm.ErrRecordNotFound {
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("querying build cache: %w", result.Error)
	}

	var decoded ir.Bundle
	if err := gob.NewDecoder(bytes.NewReader(entry.Payload)).Decode(&decoded); err != nil {
		return nil, false, fmt.Errorf("decoding cached bundle: %w", err)
	}
	return &decoded, true, nil
}

// Put stores bundle under fingerprint, replacing any prior entry for the
// same fingerprint.
func (s *Store) Put(fingerprint string, bundle *ir.Bundle) error {
	var buf bytes.Buffer
	if err := gob.NewEncoder(&buf).Encode(bundle); err != nil {
		return fmt.Errorf("encoding bundle for cache: %w", err)
	}
	payload := buf.Bytes()

	var existing Entry
	err := s.db.Where("fingerprint = ?", fingerprint).First(&existing).Error
	switch {
	case err == nil:
		existing.ModuleName = bundle.ModuleName
		existing.Payload = payload
		if err := s.db.Save(&existing).Error; err != nil {
			return fmt.Errorf("updating build cache entry: %w", err)
		}
		return nil
	case err == gorm.ErrRecordNotFound:
		entry := Entry{
			ID:          uuid.NewString(),
			Fingerprint: fingerprint,
			ModuleName:  bundle.ModuleName,
			Payload:     payload,
		}
		if err := s.db.Create(&entry).Error; err != nil {
			return fmt.Errorf("storing build cache entry: %w", err)
		}
		return nil
	default:
		return fmt.Errorf("querying build cache: %w", err)
	}
}

// Fingerprint computes a deterministic content hash of the inputs that
// determine a compilation's IR: module name, sorted constant values, and
// the sorted struct/union/enum/choice/subtype names present. It is
// intentionally coarse — any change to a definition's name set or a
// constant's folded value invalidates the cache entry; byte-identical
// fingerprints across runs rely on the deterministic definition ordering
// the IR builder guarantees.
func Fingerprint(bundle *ir.Bundle) string {
	h := sha256.New()
	fmt.Fprintf(h, "module:%s\n", bundle.ModuleName)

	constNames := make([]string, 0, len(bundle.Constants))
	for name := range bundle.Constants {
		constNames = append(constNames, name)
	}
	sort.Strings(constNames)
	for _, name := range constNames {
		fmt.Fprintf(h, "const:%s=%d\n", name, bundle.Constants[name])
	}

	writeNames(h, "struct", structNames(bundle.Structs))
	writeNames(h, "union", unionNames(bundle.Unions))
	writeNames(h, "enum", enumNames(bundle.Enums))
	writeNames(h, "choice", choiceNames(bundle.Choices))
	writeNames(h, "subtype", subtypeNames(bundle.Subtypes))

	return hex.EncodeToString(h.Sum(nil))
}

func writeNames(h interface{ Write([]byte) (int, error) }, kind string, names []string) {
	sort.Strings(names)
	for _, n := range names {
		fmt.Fprintf(h, "%s:%s\n", kind, n)
	}
}

func structNames(s []ir.Struct) []string {
	out := make([]string, len(s))
	for i, v := range s {
		out[i] = v.Name
	}
	return out
}

func unionNames(u []ir.Union) []string {
	out := make([]string, len(u))
	for i, v := range u {
		out[i] = v.Name
	}
	return out
}

func enumNames(e []ir.Enum) []string {
	out := make([]string, len(e))
	for i, v := range e {
		out[i] = v.Name
	}
	return out
}

func choiceNames(c []ir.Choice) []string {
	out := make([]string, len(c))
	for i, v := range c {
		out[i] = v.Name
	}
	return out
}

func subtypeNames(s []ir.Subtype) []string {
	out := make([]string, len(s))
	for i, v := range s {
		out[i] = v.Name
	}
	return out
}
