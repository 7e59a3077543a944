// Package badgercatalog is the persisted catalog.Context implementation:
// propose/validate/count traces backed by github.com/dgraph-io/badger/v4,
// keyed the way the teacher's storage/badger_store.go keys its EAVT/AEVT
// indices — a printable, lexicographically-sortable key built from L85-
// encoded segments (package catalog/codec) rather than raw binary, so a
// key dump is still readable during debugging.
package badgercatalog

import (
	"fmt"
	"sort"
	"strings"
	"sync"

	badger "github.com/dgraph-io/badger/v4"

	"github.com/wbrown/diffplan/catalog"
	"github.com/wbrown/diffplan/dataflow"
	"github.com/wbrown/diffplan/ident"
	"github.com/wbrown/diffplan/value"
)

// direction distinguishes forward (keyed by entity) from reverse (keyed by
// value) traces.
type direction byte

const (
	forward direction = 'f'
	reverse direction = 'r'
)

// kind distinguishes the three index shapes spec §3 requires per
// direction.
type kind byte

const (
	kindPropose  kind = 'p'
	kindValidate kind = 'v'
	kindCount    kind = 'c'
)

// Catalog is a Badger-backed catalog.Context. Facts are written directly to
// the database on Assert; ImportCore scans the relevant key prefix to
// build the snapshot the reference dataflow runtime replays, the same
// "scan into a static collection" shape memcatalog uses, just sourced from
// disk instead of a slice.
type Catalog struct {
	db *badger.DB

	mu               sync.Mutex
	attrs            map[ident.Aid]bool
	rules            map[string]catalog.RuleDef
	underconstrained map[string]bool
	globals          map[string]catalog.GlobalArrangement
	frontier         map[string]dataflow.Moment // per (attribute,dir,kind) key prefix
}

var _ catalog.Context = (*Catalog)(nil)

// Open returns a Catalog backed by a Badger database at path. Callers own
// the returned *badger.DB lifetime through Close.
func Open(path string) (*Catalog, error) {
	opts := badger.DefaultOptions(path)
	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("badgercatalog: open %s: %w", path, err)
	}
	return &Catalog{
		db:               db,
		attrs:            map[ident.Aid]bool{},
		rules:            map[string]catalog.RuleDef{},
		underconstrained: map[string]bool{},
		globals:          map[string]catalog.GlobalArrangement{},
		frontier:         map[string]dataflow.Moment{},
	}, nil
}

// Close releases the underlying Badger database.
func (c *Catalog) Close() error {
	return c.db.Close()
}

func prefixKey(a ident.Aid, dir direction, k kind) string {
	return fmt.Sprintf("%s:%c:%c:", a, dir, k)
}

func factKey(a ident.Aid, dir direction, k kind, key, val value.Value) []byte {
	prefix := prefixKey(a, dir, k)
	return []byte(prefix + l85Key(encodeValue(key)) + ":" + l85Key(encodeValue(val)))
}

// DefineAttribute registers a (initially empty) attribute.
func (c *Catalog) DefineAttribute(a ident.Aid) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.attrs[a] = true
}

// Assert writes one (e, v) fact at ts into every forward/reverse
// propose/validate key for attribute a. Count traces are derived on read
// rather than maintained incrementally, trading write amplification for a
// much simpler Assert path — acceptable for a reference persisted catalog
// whose job is durability, not production-grade performance.
func (c *Catalog) Assert(a ident.Aid, e ident.Eid, v value.Value, ts dataflow.Timestamp) error {
	c.DefineAttribute(a)
	ev := value.Eid(e)

	err := c.db.Update(func(txn *badger.Txn) error {
		entries := []struct {
			dir direction
			k   kind
			key value.Value
			val value.Value
		}{
			{forward, kindPropose, ev, v},
			{reverse, kindPropose, v, ev},
			{forward, kindValidate, ev, v},
			{reverse, kindValidate, v, ev},
		}
		for _, e := range entries {
			if err := txn.Set(factKey(a, e.dir, e.k, e.key, e.val), []byte{1}); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return err
	}

	for _, dir := range []direction{forward, reverse} {
		for _, k := range []kind{kindPropose, kindValidate} {
			c.advance(prefixKey(a, dir, k), ts)
		}
	}
	return nil
}

func (c *Catalog) advance(prefix string, ts dataflow.Timestamp) {
	m, ok := ts.(dataflow.Moment)
	if !ok {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if cur, ok := c.frontier[prefix]; !ok || m+1 > cur {
		c.frontier[prefix] = m + 1
	}
}

func (c *Catalog) outer(prefix string) dataflow.Timestamp {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.frontier[prefix]
}

func (c *Catalog) HasAttribute(a ident.Aid) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.attrs[a]
}

// scanPropose returns every (key, value) pair stored under a forward or
// reverse propose prefix, decoded back into the two raw columns stored at
// Assert time (memcatalog-equivalent, but read from Badger).
func (c *Catalog) scanPropose(a ident.Aid, dir direction) ([]dataflow.Update, error) {
	prefix := []byte(prefixKey(a, dir, kindPropose))
	ts := c.outer(string(prefix))

	var out []dataflow.Update
	err := c.db.View(func(txn *badger.Txn) error {
		it := txn.NewIterator(badger.DefaultIteratorOptions)
		defer it.Close()
		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			item := it.Item()
			rest := strings.TrimPrefix(string(item.Key()), string(prefix))
			parts := strings.SplitN(rest, ":", 2)
			if len(parts) != 2 {
				continue
			}
			keyBytes, err := decodeL85(parts[0])
			if err != nil {
				return err
			}
			valBytes, err := decodeL85(parts[1])
			if err != nil {
				return err
			}
			kv := decodeTaggedEidOrValue(keyBytes)
			vv := decodeTaggedEidOrValue(valBytes)
			out = append(out, dataflow.Update{Row: dataflow.Row{kv, vv}, Time: ts, Diff: 1})
		}
		return nil
	})
	return out, err
}

// proposeHandle adapts one (attribute, direction) propose index to
// dataflow.TraceValHandle.
type proposeHandle struct {
	c   *Catalog
	a   ident.Aid
	dir direction
}

func (h proposeHandle) ImportCore(scope dataflow.IterativeScope) (dataflow.Arrangement, dataflow.ShutdownButton) {
	rows, err := h.c.scanPropose(h.a, h.dir)
	if err != nil {
		rows = nil
	}
	ts := scope.EnterAt(h.c.outer(prefixKey(h.a, h.dir, kindPropose)))
	retimed := make(staticStream, len(rows))
	for i, u := range rows {
		retimed[i] = dataflow.Update{Row: u.Row, Time: ts, Diff: u.Diff}
	}
	return &staticArrangement{retimed}, &button{}
}

func (h proposeHandle) ImportFrontier(scope dataflow.IterativeScope) (dataflow.Arrangement, dataflow.ShutdownButton) {
	return h.ImportCore(scope)
}

func (h proposeHandle) AdvanceFrontier() dataflow.Frontier {
	return dataflow.Frontier{h.c.outer(prefixKey(h.a, h.dir, kindPropose))}
}

type validateHandle struct {
	c   *Catalog
	a   ident.Aid
	dir direction
}

func (h validateHandle) ImportCore(scope dataflow.IterativeScope) (dataflow.Arrangement, dataflow.ShutdownButton) {
	p := proposeHandle{c: h.c, a: h.a, dir: h.dir}
	return p.ImportCore(scope)
}
func (h validateHandle) ImportFrontier(scope dataflow.IterativeScope) (dataflow.Arrangement, dataflow.ShutdownButton) {
	return h.ImportCore(scope)
}
func (h validateHandle) AdvanceFrontier() dataflow.Frontier {
	return dataflow.Frontier{h.c.outer(prefixKey(h.a, h.dir, kindValidate))}
}

func (c *Catalog) ForwardPropose(a ident.Aid) (dataflow.TraceValHandle, bool) {
	if !c.HasAttribute(a) {
		return nil, false
	}
	return proposeHandle{c: c, a: a, dir: forward}, true
}
func (c *Catalog) ReversePropose(a ident.Aid) (dataflow.TraceValHandle, bool) {
	if !c.HasAttribute(a) {
		return nil, false
	}
	return proposeHandle{c: c, a: a, dir: reverse}, true
}
func (c *Catalog) ForwardValidate(a ident.Aid) (dataflow.TraceKeyHandle, bool) {
	if !c.HasAttribute(a) {
		return nil, false
	}
	return validateHandle{c: c, a: a, dir: forward}, true
}
func (c *Catalog) ReverseValidate(a ident.Aid) (dataflow.TraceKeyHandle, bool) {
	if !c.HasAttribute(a) {
		return nil, false
	}
	return validateHandle{c: c, a: a, dir: reverse}, true
}

// ForwardCount/ReverseCount derive a distinct-value count per key by
// scanning the corresponding propose index — count is not maintained as
// its own Badger index in this reference implementation (see DESIGN.md).
func (c *Catalog) ForwardCount(a ident.Aid) (dataflow.TraceValHandle, bool) {
	return c.countHandle(a, forward)
}
func (c *Catalog) ReverseCount(a ident.Aid) (dataflow.TraceValHandle, bool) {
	return c.countHandle(a, reverse)
}

func (c *Catalog) countHandle(a ident.Aid, dir direction) (dataflow.TraceValHandle, bool) {
	if !c.HasAttribute(a) {
		return nil, false
	}
	return countHandle{c: c, a: a, dir: dir}, true
}

type countHandle struct {
	c   *Catalog
	a   ident.Aid
	dir direction
}

func (h countHandle) ImportCore(scope dataflow.IterativeScope) (dataflow.Arrangement, dataflow.ShutdownButton) {
	rows, err := h.c.scanPropose(h.a, h.dir)
	if err != nil {
		rows = nil
	}
	counts := map[string]int64{}
	keyVals := map[string]value.Value{}
	for _, u := range rows {
		k := u.Row[0].String()
		counts[k]++
		keyVals[k] = u.Row[0]
	}
	ts := scope.EnterAt(h.c.outer(prefixKey(h.a, h.dir, kindPropose)))
	var out staticStream
	var keys []string
	for k := range counts {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		out = append(out, dataflow.Update{Row: dataflow.Row{keyVals[k], value.Int(counts[k])}, Time: ts, Diff: 1})
	}
	return &staticArrangement{out}, &button{}
}
func (h countHandle) ImportFrontier(scope dataflow.IterativeScope) (dataflow.Arrangement, dataflow.ShutdownButton) {
	return h.ImportCore(scope)
}
func (h countHandle) AdvanceFrontier() dataflow.Frontier {
	return dataflow.Frontier{h.c.outer(prefixKey(h.a, h.dir, kindPropose))}
}

// AddRule registers a named rule definition (opaque to this package, see
// catalog.RuleDef) and whether it is underconstrained.
func (c *Catalog) AddRule(name string, def catalog.RuleDef, underconstrained bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.rules[name] = def
	c.underconstrained[name] = underconstrained
}

func (c *Catalog) Rule(name string) (catalog.RuleDef, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	d, ok := c.rules[name]
	return d, ok
}

func (c *Catalog) IsUnderconstrained(name string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.underconstrained[name]
}

func (c *Catalog) AddGlobalArrangement(name string, g catalog.GlobalArrangement) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.globals[name] = g
}

func (c *Catalog) GlobalArrangement(name string) (catalog.GlobalArrangement, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	g, ok := c.globals[name]
	return g, ok
}
