// Package table maps rows of one database table to typed records and keeps an
// identity cache of the records it has loaded or stored.
package table

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/rzpsarthak13/sqlobjects/internal/core"
	"github.com/rzpsarthak13/sqlobjects/internal/query"
	"github.com/rzpsarthak13/sqlobjects/internal/schema"
)

// ErrNoID is returned when a record without an identifier reaches an
// operation that needs one.
var ErrNoID = errors.New("record has no identifier")

// Table is the handler of one table. It builds the SQL for every operation,
// decodes result rows into records and caches records by identifier.
type Table[T any] struct {
	conn     core.Conn
	schema   Schema[T]
	idColumn string
	fields   map[string]*Field[T]
	newID    func() any
	feed     core.ChangeFeed
	origin   string
	logger   zerolog.Logger

	mu    sync.Mutex
	kinds map[string]schema.Kind
	cache map[string]*Record[T]
}

// New creates a handler for the table described by s.
func New[T any](conn core.Conn, s Schema[T], opts ...Option) (*Table[T], error) {
	if conn == nil {
		return nil, fmt.Errorf("connection cannot be nil")
	}
	if s.Table == "" {
		return nil, fmt.Errorf("table name cannot be empty")
	}

	o := options{
		logger: zerolog.Nop(),
		newID:  NewUUID,
	}
	for _, opt := range opts {
		opt(&o)
	}
	if o.origin == "" {
		o.origin = uuid.NewString()
	}

	t := &Table[T]{
		conn:     conn,
		schema:   s,
		idColumn: s.idColumn(),
		fields:   make(map[string]*Field[T], len(s.Fields)),
		newID:    o.newID,
		feed:     o.feed,
		origin:   o.origin,
		logger:   o.logger.With().Str("component", "table").Str("table", s.Table).Logger(),
		cache:    make(map[string]*Record[T]),
	}

	for i := range t.schema.Fields {
		f := &t.schema.Fields[i]
		if f.Name == "" || f.Get == nil || f.Set == nil {
			return nil, fmt.Errorf("field %d of table %s is incomplete", i, s.Table)
		}
		if f.Name == t.idColumn {
			return nil, fmt.Errorf("field %s of table %s duplicates the id column", f.Name, s.Table)
		}
		if _, dup := t.fields[f.Name]; dup {
			return nil, fmt.Errorf("field %s of table %s is declared twice", f.Name, s.Table)
		}
		t.fields[f.Name] = f
	}

	if o.kinds != nil {
		t.kinds = t.withFieldKinds(o.kinds)
	}
	return t, nil
}

// Name returns the table name.
func (t *Table[T]) Name() string {
	return t.schema.Table
}

// IDColumn returns the identifier column name.
func (t *Table[T]) IDColumn() string {
	return t.idColumn
}

// New returns an unpersisted record holding data. In ClientGenerated mode
// the identifier is assigned immediately.
func (t *Table[T]) New(data T) *Record[T] {
	return &Record[T]{Data: data, id: t.generateID(), table: t}
}

func (t *Table[T]) generateID() any {
	if t.schema.IDMode == DatabaseGenerated {
		return nil
	}
	return t.newID()
}

// Load returns the record with the given id, from the cache when possible.
func (t *Table[T]) Load(ctx context.Context, id any, opts ...LoadOption) (*Record[T], error) {
	var o loadOptions
	for _, opt := range opts {
		opt(&o)
	}

	if !o.bypassCache {
		if rec := t.Cached(id); rec != nil {
			return rec, nil
		}
	}

	rec, err := t.fetch(ctx, id)
	if err != nil {
		return nil, err
	}
	return t.adopt(rec), nil
}

// LoadMany returns the records with the given ids keyed by canonical id.
// Cache misses are fetched with a single query; unknown ids are absent.
func (t *Table[T]) LoadMany(ctx context.Context, ids []any, opts ...LoadOption) (map[string]*Record[T], error) {
	var o loadOptions
	for _, opt := range opts {
		opt(&o)
	}

	found := make(map[string]*Record[T], len(ids))
	var missing []any
	seen := make(map[string]bool, len(ids))
	for _, id := range ids {
		key := Key(id)
		if seen[key] {
			continue
		}
		seen[key] = true

		if !o.bypassCache {
			if rec := t.Cached(id); rec != nil {
				found[key] = rec
				continue
			}
		}
		missing = append(missing, id)
	}
	if len(missing) == 0 {
		return found, nil
	}

	stmt, err := query.SelectWhere(t.conn, t.schema.Table, map[string]any{t.idColumn: missing}, query.And)
	if err != nil {
		return nil, err
	}
	records, err := t.queryRecords(ctx, stmt)
	if err != nil {
		return nil, err
	}
	for _, rec := range records {
		rec = t.adopt(rec)
		found[rec.Key()] = rec
	}
	return found, nil
}

// LoadAll loads every row. The cache afterwards holds exactly those rows;
// instances already cached are refreshed and kept.
func (t *Table[T]) LoadAll(ctx context.Context) ([]*Record[T], error) {
	records, err := t.queryRecords(ctx, query.SelectAll(t.conn, t.schema.Table))
	if err != nil {
		return nil, err
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	cache := make(map[string]*Record[T], len(records))
	for i, rec := range records {
		key := rec.Key()
		if old, ok := t.cache[key]; ok {
			old.Data = rec.Data
			old.persisted = true
			rec = old
			records[i] = old
		}
		cache[key] = rec
	}
	t.cache = cache
	return records, nil
}

// LoadRange loads limit rows ordered by id, skipping the first offset rows.
func (t *Table[T]) LoadRange(ctx context.Context, offset, limit int) ([]*Record[T], error) {
	if offset < 0 || limit < 0 {
		return nil, fmt.Errorf("invalid range offset=%d limit=%d", offset, limit)
	}
	stmt := query.SelectRange(t.conn, t.schema.Table, t.idColumn, offset, limit)
	return t.loadRecords(ctx, stmt)
}

// LoadWhere loads the rows matching pairs, joined by conj.
func (t *Table[T]) LoadWhere(ctx context.Context, pairs map[string]any, conj query.Conjunction) ([]*Record[T], error) {
	stmt, err := query.SelectWhere(t.conn, t.schema.Table, pairs, conj)
	if err != nil {
		return nil, err
	}
	return t.loadRecords(ctx, stmt)
}

// LoadIDsNotIn loads every row whose id is not in ids.
func (t *Table[T]) LoadIDsNotIn(ctx context.Context, ids []any) ([]*Record[T], error) {
	cond, err := query.NotInList(t.conn, t.idColumn, ids)
	if err != nil {
		return nil, err
	}
	stmt := query.SelectAll(t.conn, t.schema.Table) + " WHERE " + cond
	return t.loadRecords(ctx, stmt)
}

// Create builds a record from row, assigns its identifier and inserts it.
func (t *Table[T]) Create(ctx context.Context, row map[string]any) (*Record[T], error) {
	rec := &Record[T]{table: t}
	if err := t.assign(rec, row, nil); err != nil {
		return nil, err
	}
	for name := range row {
		if _, ok := t.fields[name]; !ok && name != t.idColumn {
			t.logger.Warn().Str("column", name).Msg("unknown column in create, skipping")
		}
	}

	for i := range t.schema.Fields {
		f := &t.schema.Fields[i]
		if f.HasDefault && row[f.Name] == nil {
			if rec.defaulted == nil {
				rec.defaulted = make(map[string]bool)
			}
			rec.defaulted[f.Name] = true
		}
	}

	if id := row[t.idColumn]; id != nil {
		rec.id = id
	} else {
		rec.id = t.generateID()
	}

	if err := t.insert(ctx, rec); err != nil {
		return nil, err
	}
	return rec, nil
}

func (t *Table[T]) insert(ctx context.Context, rec *Record[T]) error {
	row := t.insertRow(rec)
	stmt, err := query.Insert(t.conn, t.schema.Table, row)
	if err != nil {
		return err
	}
	defaults := t.omitted(row)

	id := rec.id
	var returned core.Row
	switch {
	case t.conn.Dialect().SupportsReturning() && (id == nil || len(defaults) > 0):
		rows, err := t.conn.Query(ctx, stmt+" RETURNING *")
		if err != nil {
			return err
		}
		if len(rows) == 0 {
			return fmt.Errorf("insert into %s returned no row", t.schema.Table)
		}
		returned = rows[0]
	case id != nil:
		if _, err := t.conn.Exec(ctx, stmt); err != nil {
			return err
		}
	default:
		res, err := t.conn.Exec(ctx, stmt)
		if err != nil {
			return err
		}
		id = res.LastInsertID
	}

	if returned != nil {
		kinds, err := t.columnKinds(ctx)
		if err != nil {
			return err
		}
		if id == nil {
			if id, err = t.coerce(t.idColumn, returned[t.idColumn], kinds); err != nil {
				return err
			}
		}
		if err := t.applyDefaults(rec, returned, defaults, kinds); err != nil {
			return err
		}
	}

	rec.id = id
	rec.persisted = true
	rec.defaulted = nil

	if returned == nil && len(defaults) > 0 {
		t.readDefaults(ctx, rec, defaults)
	}

	t.put(rec)
	t.publish(ctx, core.ChangeInsert, rec.Key())
	t.logger.Debug().Str("id", rec.Key()).Msg("record created")
	return nil
}

// readDefaults re-fetches rec on engines without RETURNING to pick up the
// values the database filled in. The row is already stored, so a failure is
// only logged.
func (t *Table[T]) readDefaults(ctx context.Context, rec *Record[T], defaults []*Field[T]) {
	stored, err := t.fetch(ctx, rec.id)
	if err != nil {
		t.logger.Warn().Err(err).Str("id", rec.Key()).Msg("failed to read back column defaults")
		return
	}
	for _, f := range defaults {
		if err := f.Set(&rec.Data, f.Get(&stored.Data)); err != nil {
			t.logger.Warn().Err(err).Str("column", f.Name).Msg("failed to read back column default")
		}
	}
}

// Update runs a single UPDATE for the record with the given id. A cached
// record is patched in place; otherwise the record is loaded by its
// resulting id. Changing the id column re-keys the cached record.
func (t *Table[T]) Update(ctx context.Context, id any, partial map[string]any) (*Record[T], error) {
	if len(partial) == 0 {
		return t.Load(ctx, id)
	}
	return t.update(ctx, id, partial, nil)
}

// update is shared by Table.Update and Record.Save; self is the saving record.
func (t *Table[T]) update(ctx context.Context, id any, partial map[string]any, self *Record[T]) (*Record[T], error) {
	if id == nil {
		return nil, ErrNoID
	}
	stmt, err := query.Update(t.conn, t.schema.Table, partial, t.idColumn, id)
	if err != nil {
		return nil, err
	}
	if _, err := t.conn.Exec(ctx, stmt); err != nil {
		return nil, err
	}

	oldKey := Key(id)
	newID := id
	if v, ok := partial[t.idColumn]; ok && v != nil && Key(v) != oldKey {
		newID = v
	}
	newKey := Key(newID)

	t.mu.Lock()
	cached := t.cache[oldKey]
	if newKey != oldKey {
		delete(t.cache, oldKey)
	}
	t.mu.Unlock()

	var rec *Record[T]
	switch {
	case cached != nil:
		if cached != self {
			if err := t.patch(cached, partial); err != nil {
				t.Evict(oldKey)
				return nil, err
			}
		}
		rec = cached
	case self != nil:
		rec = self
	default:
		rec, err = t.fetch(ctx, newID)
		if err != nil {
			return nil, err
		}
	}

	rec.id = newID
	rec.persisted = true
	if self != nil && self != rec {
		self.id = newID
		self.persisted = true
	}
	t.put(rec)

	keys := []string{newKey}
	if newKey != oldKey {
		keys = append(keys, oldKey)
	}
	t.publish(ctx, core.ChangeUpdate, keys...)
	return rec, nil
}

// patch applies partial to rec through the field setters.
func (t *Table[T]) patch(rec *Record[T], partial map[string]any) error {
	for name, value := range partial {
		if name == t.idColumn {
			continue
		}
		f, ok := t.fields[name]
		if !ok {
			t.logger.Warn().Str("column", name).Msg("updated column has no field, cached record not patched for it")
			continue
		}
		if err := f.Set(&rec.Data, value); err != nil {
			return fmt.Errorf("patch %s.%s: %w", t.schema.Table, name, err)
		}
	}
	return nil
}

// Delete removes the row with the given id and evicts it.
func (t *Table[T]) Delete(ctx context.Context, id any) error {
	if id == nil {
		return ErrNoID
	}
	stmt, err := query.DeleteWhere(t.conn, t.schema.Table, map[string]any{t.idColumn: id}, query.And)
	if err != nil {
		return err
	}
	if _, err := t.conn.Exec(ctx, stmt); err != nil {
		return err
	}
	key := Key(id)
	t.Evict(key)
	t.publish(ctx, core.ChangeDelete, key)
	return nil
}

// DeleteByID is Delete.
func (t *Table[T]) DeleteByID(ctx context.Context, id any) error {
	return t.Delete(ctx, id)
}

// DeleteMany removes the rows with the given ids in one statement and evicts
// exactly those ids.
func (t *Table[T]) DeleteMany(ctx context.Context, ids []any) error {
	if len(ids) == 0 {
		return nil
	}
	stmt, err := query.DeleteWhere(t.conn, t.schema.Table, map[string]any{t.idColumn: ids}, query.And)
	if err != nil {
		return err
	}
	if _, err := t.conn.Exec(ctx, stmt); err != nil {
		return err
	}

	keys := make([]string, len(ids))
	for i, id := range ids {
		keys[i] = Key(id)
	}
	t.Evict(keys...)
	t.publish(ctx, core.ChangeDelete, keys...)
	return nil
}

// DeleteWhere removes the rows matching pairs and returns how many were
// deleted. The whole cache is cleared unless KeepCache is given.
func (t *Table[T]) DeleteWhere(ctx context.Context, pairs map[string]any, conj query.Conjunction, opts ...DeleteOption) (int64, error) {
	stmt, err := query.DeleteWhere(t.conn, t.schema.Table, pairs, conj)
	if err != nil {
		return 0, err
	}
	res, err := t.conn.Exec(ctx, stmt)
	if err != nil {
		return 0, err
	}

	var o deleteOptions
	for _, opt := range opts {
		opt(&o)
	}
	if !o.keepCache {
		t.EmptyCache()
		t.publish(ctx, core.ChangeClear)
	}
	return res.RowsAffected, nil
}

// DeleteAllExcept removes every row whose id is not in ids. An empty list
// deletes all rows. Cached records outside ids are evicted unless KeepCache
// is given.
func (t *Table[T]) DeleteAllExcept(ctx context.Context, ids []any, opts ...DeleteOption) (int64, error) {
	cond, err := query.NotInList(t.conn, t.idColumn, ids)
	if err != nil {
		return 0, err
	}
	res, err := t.conn.Exec(ctx, query.DeleteAll(t.conn, t.schema.Table)+" WHERE "+cond)
	if err != nil {
		return 0, err
	}

	var o deleteOptions
	for _, opt := range opts {
		opt(&o)
	}
	if o.keepCache {
		return res.RowsAffected, nil
	}

	keep := make(map[string]bool, len(ids))
	for _, id := range ids {
		keep[Key(id)] = true
	}
	evicted := 0
	t.mu.Lock()
	for key := range t.cache {
		if !keep[key] {
			delete(t.cache, key)
			evicted++
		}
	}
	t.mu.Unlock()
	t.logger.Debug().Int("evicted", evicted).Msg("deleted all rows except kept ids")

	// other processes may cache rows this process never saw
	t.publish(ctx, core.ChangeClear)
	return res.RowsAffected, nil
}

// Truncate empties the table with the dialect's truncate statement.
func (t *Table[T]) Truncate(ctx context.Context) error {
	stmt := t.conn.Dialect().TruncateStatement(query.EscapeIdentifier(t.conn, t.schema.Table))
	if _, err := t.conn.Exec(ctx, stmt); err != nil {
		return err
	}
	t.EmptyCache()
	t.publish(ctx, core.ChangeClear)
	return nil
}

// DeleteAll removes every row, inside a transaction when inTransaction is set.
func (t *Table[T]) DeleteAll(ctx context.Context, inTransaction bool) error {
	stmt := query.DeleteAll(t.conn, t.schema.Table)
	if inTransaction {
		if err := t.conn.ExecBatch(ctx, []string{stmt}); err != nil {
			return err
		}
	} else if _, err := t.conn.Exec(ctx, stmt); err != nil {
		return err
	}
	t.EmptyCache()
	t.publish(ctx, core.ChangeClear)
	return nil
}

// BatchSave saves all records atomically with constraints deferred. Records
// are marked persisted and cached only when the whole batch succeeds.
func (t *Table[T]) BatchSave(ctx context.Context, records []*Record[T]) error {
	if len(records) == 0 {
		return nil
	}

	var stmts []string
	if stmt := t.conn.Dialect().DeferConstraintsStatement(); stmt != "" {
		stmts = append(stmts, stmt)
	}
	for _, rec := range records {
		if rec.id == nil {
			return fmt.Errorf("batch save into %s: %w", t.schema.Table, ErrNoID)
		}
		stmt, err := rec.SaveQuery()
		if err != nil {
			return err
		}
		stmts = append(stmts, stmt)
	}

	if err := t.conn.ExecBatch(ctx, stmts); err != nil {
		return err
	}

	keys := make([]string, len(records))
	t.mu.Lock()
	for i, rec := range records {
		rec.persisted = true
		keys[i] = rec.Key()
		t.cache[keys[i]] = rec
	}
	t.mu.Unlock()

	t.publish(ctx, core.ChangeUpdate, keys...)
	t.logger.Debug().Int("records", len(records)).Msg("batch saved")
	return nil
}

// Cached returns the cached record for id, or nil.
func (t *Table[T]) Cached(id any) *Record[T] {
	key := Key(id)
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.cache[key]
}

// CacheSize returns the number of cached records.
func (t *Table[T]) CacheSize() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.cache)
}

// Evict drops the given keys from the cache.
func (t *Table[T]) Evict(keys ...string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	for _, key := range keys {
		delete(t.cache, key)
	}
}

// EmptyCache drops every cached record.
func (t *Table[T]) EmptyCache() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.cache = make(map[string]*Record[T])
}

// CreatePrimary returns the DDL of a primary key constraint on columns.
func (t *Table[T]) CreatePrimary(name string, columns []string, deferCfg query.DeferConfig) query.Constraint {
	return query.PrimaryKey(t.conn, name, t.schema.Table, columns, deferCfg)
}

// CreateUnique returns the DDL of a unique constraint on columns.
func (t *Table[T]) CreateUnique(name string, columns []string, deferCfg query.DeferConfig) query.Constraint {
	return query.Unique(t.conn, name, t.schema.Table, columns, deferCfg)
}

// CreateForeignKey returns the DDL of fk declared on this table.
func (t *Table[T]) CreateForeignKey(fk query.ForeignKey) query.Constraint {
	fk.Table = t.schema.Table
	return fk.Build(t.conn)
}

func (t *Table[T]) put(rec *Record[T]) {
	key := rec.Key()
	if key == "" {
		return
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	t.cache[key] = rec
}

// adopt caches rec, or refreshes and returns the instance already cached
// under its key.
func (t *Table[T]) adopt(rec *Record[T]) *Record[T] {
	key := rec.Key()
	if key == "" {
		return rec
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	if old, ok := t.cache[key]; ok {
		old.Data = rec.Data
		old.persisted = true
		return old
	}
	t.cache[key] = rec
	return rec
}

func (t *Table[T]) fetch(ctx context.Context, id any) (*Record[T], error) {
	if id == nil {
		return nil, ErrNoID
	}
	stmt, err := query.SelectWhere(t.conn, t.schema.Table, map[string]any{t.idColumn: id}, query.And)
	if err != nil {
		return nil, err
	}
	records, err := t.queryRecords(ctx, stmt)
	if err != nil {
		return nil, err
	}
	if len(records) == 0 {
		return nil, &core.NotFoundError{Table: t.schema.Table, ID: id}
	}
	return records[0], nil
}

func (t *Table[T]) loadRecords(ctx context.Context, stmt string) ([]*Record[T], error) {
	records, err := t.queryRecords(ctx, stmt)
	if err != nil {
		return nil, err
	}
	for i, rec := range records {
		records[i] = t.adopt(rec)
	}
	return records, nil
}

// queryRecords runs stmt and decodes every row without touching the cache.
func (t *Table[T]) queryRecords(ctx context.Context, stmt string) ([]*Record[T], error) {
	rows, err := t.conn.Query(ctx, stmt)
	if err != nil {
		return nil, err
	}
	kinds, err := t.columnKinds(ctx)
	if err != nil {
		return nil, err
	}

	records := make([]*Record[T], 0, len(rows))
	for _, row := range rows {
		rec, err := t.decode(row, kinds)
		if err != nil {
			return nil, err
		}
		records = append(records, rec)
	}
	return records, nil
}

// columnKinds returns the coercion hints of every column, reading table
// metadata on first use.
func (t *Table[T]) columnKinds(ctx context.Context) (map[string]schema.Kind, error) {
	t.mu.Lock()
	kinds := t.kinds
	t.mu.Unlock()
	if kinds != nil {
		return kinds, nil
	}

	s, err := t.conn.GetSchema(ctx, t.schema.Table)
	if err != nil {
		return nil, fmt.Errorf("load column metadata of %s: %w", t.schema.Table, err)
	}
	for _, problem := range schema.NewSchemaValidator(s).ValidateFields(t.idColumn, t.schema.fieldSpecs()) {
		t.logger.Warn().Err(problem).Msg("field declaration does not match table")
	}

	kinds = t.withFieldKinds(mapper.Kinds(s.Types()))
	t.mu.Lock()
	t.kinds = kinds
	t.mu.Unlock()
	return kinds, nil
}

func (t *Table[T]) withFieldKinds(base map[string]schema.Kind) map[string]schema.Kind {
	kinds := make(map[string]schema.Kind, len(base)+len(t.schema.Fields))
	for column, kind := range base {
		kinds[column] = kind
	}
	for i := range t.schema.Fields {
		if f := &t.schema.Fields[i]; f.Kind != schema.KindText {
			kinds[f.Name] = f.Kind
		}
	}
	return kinds
}

func (t *Table[T]) publish(ctx context.Context, op core.ChangeOperation, keys ...string) {
	if t.feed == nil {
		return
	}
	change := &core.Change{
		Table:     t.schema.Table,
		Operation: op,
		Keys:      keys,
		Origin:    t.origin,
		Timestamp: time.Now(),
	}
	if err := t.feed.Publish(ctx, change); err != nil {
		t.logger.Warn().Err(err).Str("operation", string(op)).Msg("failed to publish change")
	}
}
