package protocol

import (
	"context"
	"fmt"
	"regexp"
	"slices"
	"strings"

	"github.com/kuaminaji/Controle-de-Protocolos/internal/document"
	"github.com/kuaminaji/Controle-de-Protocolos/pkg/types"
)

// History actions.
const (
	ActionCreate = "criar"
	ActionEdit   = "editar"
	ActionDelete = "excluir"
)

// Record fields outside the shared set in types.
const (
	fieldPartyName   = "nome_parte_ato"
	fieldOtherInfo   = "outras_infos"
	fieldNotes       = "observacoes"
	fieldPickedUpBy  = "retirado_por"
	fieldPickedUpOn  = "data_retirada"
	fieldPickedUpDT  = "data_retirada_dt"
	requirementCount = 3
)

// trackedFields are compared on every edit to build the change list.
var trackedFields = func() []string {
	f := []string{
		types.FieldRequester, types.FieldTaxID, types.FieldTitle, fieldPartyName, fieldOtherInfo,
		types.FieldCreatedAt, types.FieldStatus, types.FieldCategory, fieldNotes,
		fieldPickedUpBy, fieldPickedUpOn,
	}
	for i := 1; i <= requirementCount; i++ {
		r := requirementFields(i)
		f = append(f, r.pickedUpBy, r.pickedUpOn, r.resubmittedBy, r.resubmittedOn)
	}
	return f
}()

type requirement struct {
	pickedUpBy, pickedUpOn, resubmittedBy, resubmittedOn string
}

func requirementFields(i int) requirement {
	p := fmt.Sprintf("exig%d", i)
	return requirement{
		pickedUpBy:    p + "_retirada_por",
		pickedUpOn:    p + "_data_retirada",
		resubmittedBy: p + "_reapresentada_por",
		resubmittedOn: p + "_data_reapresentacao",
	}
}

var lineBreakTag = regexp.MustCompile(`<br\s*/?>`)

// NewRecord is the input of Create.
type NewRecord struct {
	Code        string
	Requester   string
	NoTaxID     bool
	TaxID       string
	Contact     string
	Title       string
	PartyName   string
	OtherInfo   string
	CreatedOn   string // YYYY-MM-DD
	Status      string
	Category    string
	Responsible string
	Notes       string
	ChangedBy   string
}

// Change is one field difference in a history entry.
type Change struct {
	Field string `json:"campo"`
	From  string `json:"de"`
	To    string `json:"para"`
}

func historyEntry(action, user, at string, changes []Change) map[string]any {
	list := make([]any, 0, len(changes))
	for _, c := range changes {
		list = append(list, map[string]any{"campo": c.Field, "de": c.From, "para": c.To})
	}
	return map[string]any{"acao": action, "usuario": user, "timestamp": at, "changes": list}
}

// Create validates r, inserts it with a creation history entry and returns
// the new identity. When the record has a tax id, requester name and
// contact are copied to every other record with the same tax id.
func (s *Service) Create(ctx context.Context, r NewRecord) (any, error) {
	code := digits(r.Code)
	if len(code) < 5 || len(code) > 10 {
		return nil, fmt.Errorf("%w: %q", ErrInvalidCode, r.Code)
	}
	status := strings.TrimSpace(r.Status)
	if !slices.Contains(types.Statuses, status) {
		return nil, fmt.Errorf("%w: %q", ErrInvalidStatus, r.Status)
	}
	category, err := s.category(ctx, r.Category)
	if err != nil {
		return nil, err
	}
	created, err := parseDay(r.CreatedOn)
	if err != nil {
		return nil, err
	}
	var taxID any
	if !r.NoTaxID {
		if d := digits(r.TaxID); d != "" {
			taxID = d
		}
	}
	by := r.ChangedBy
	if by == "" {
		by = r.Responsible
	}
	at := s.stamp()

	doc := types.Document{
		types.FieldCode:          code,
		types.FieldRequester:     r.Requester,
		types.FieldNoTaxID:       r.NoTaxID,
		types.FieldTaxID:         taxID,
		types.FieldContact:       r.Contact,
		types.FieldTitle:         r.Title,
		fieldPartyName:           r.PartyName,
		fieldOtherInfo:           r.OtherInfo,
		types.FieldCreatedAt:     strings.TrimSpace(r.CreatedOn),
		types.FieldCreatedAtTime: created,
		types.FieldStatus:        status,
		types.FieldCategory:      category,
		types.FieldResponsible:   r.Responsible,
		fieldNotes:               lineBreakTag.ReplaceAllString(r.Notes, "\n"),
		types.FieldEditable:      true,
		types.FieldLastChangedBy: by,
		types.FieldLastChangedAt: at,
		types.FieldChangeHistory: []any{historyEntry(ActionCreate, by, at, nil)},
	}
	res, err := s.records.InsertOne(ctx, doc)
	if err != nil {
		return nil, fmt.Errorf("insert record %s: %w", code, err)
	}
	s.log.Info().Str("numero", code).Msg("record created")

	if taxID != nil {
		sync := map[string]any{}
		if r.Requester != "" {
			sync[types.FieldRequester] = r.Requester
		}
		if r.Contact != "" {
			sync[types.FieldContact] = r.Contact
		}
		if err := s.syncRequester(ctx, types.Where(types.Eq(types.FieldTaxID, taxID), types.Ne(types.FieldCode, code)), sync); err != nil {
			return res.InsertedID(), err
		}
	}
	return res.InsertedID(), nil
}

func (s *Service) syncRequester(ctx context.Context, others types.Filter, set map[string]any) error {
	if len(set) == 0 {
		return nil
	}
	res, err := s.records.UpdateMany(ctx, others, types.SetFields(set))
	if err != nil {
		return fmt.Errorf("sync requester data: %w", err)
	}
	s.log.Debug().Int64("updated", res.Modified).Msg("requester data propagated")
	return nil
}

// Record returns the record with identity id.
func (s *Service) Record(ctx context.Context, id any) (types.Document, error) {
	return s.records.Get(ctx, id)
}

// Search returns the records matching query, newest first.
func (s *Service) Search(ctx context.Context, query types.Filter, skip, limit int64) ([]types.Document, error) {
	return s.records.Find(query).
		Sort(types.Desc(types.FieldCreatedAtTime)).
		Skip(skip).
		Limit(limit).
		All(ctx)
}

// History returns the change history of a record.
func (s *Service) History(ctx context.Context, id any) ([]any, error) {
	doc, err := s.records.FindOne(ctx,
		types.Where(types.Eq(types.IdentityKey, id)),
		types.Projection{types.FieldChangeHistory: 1})
	if err != nil {
		return nil, err
	}
	if doc == nil {
		return nil, types.ErrNotFound
	}
	h, _ := doc[types.FieldChangeHistory].([]any)
	return h, nil
}

func locked(rec types.Document) bool {
	if editable, ok := rec[types.FieldEditable].(bool); ok && !editable {
		return true
	}
	return strings.EqualFold(rec.String(types.FieldStatus), types.StatusDeleted)
}

// Edit applies changes to the record with identity id on behalf of by.
// Changing the code, or requirement fields that were already filled, needs
// an administrator. Cleared dates unset their timestamp twin. One history
// entry listing the tracked differences is appended.
func (s *Service) Edit(ctx context.Context, id any, changes types.Document, by string) error {
	rec, err := s.records.Get(ctx, id)
	if err != nil {
		return err
	}
	if locked(rec) {
		return ErrNotEditable
	}
	by = strings.TrimSpace(by)
	admin, err := s.isAdmin(ctx, by)
	if err != nil {
		return err
	}

	set := changes.Clone()
	if set == nil {
		set = types.Document{}
	}
	delete(set, types.IdentityKey)
	delete(set, types.IDKey)
	delete(set, types.FieldResponsible)
	var unset []string

	if notes, ok := set[fieldNotes].(string); ok {
		set[fieldNotes] = lineBreakTag.ReplaceAllString(notes, "\n")
	}
	if v, ok := set[types.FieldCode]; ok {
		code := digits(text(v))
		if len(code) < 5 || len(code) > 10 {
			return fmt.Errorf("%w: %q", ErrInvalidCode, text(v))
		}
		if code == rec.String(types.FieldCode) {
			delete(set, types.FieldCode)
		} else {
			if !admin {
				return fmt.Errorf("change record code: %w", ErrForbidden)
			}
			other, err := s.records.FindOne(ctx, types.Where(types.Eq(types.FieldCode, code), types.Ne(types.IdentityKey, id)), nil)
			if err != nil {
				return err
			}
			if other != nil {
				return fmt.Errorf("record code %s: %w", code, types.ErrDuplicateKey)
			}
			set[types.FieldCode] = code
		}
	}
	if v, ok := set[types.FieldTaxID]; ok {
		if set.Bool(types.FieldNoTaxID) || digits(text(v)) == "" {
			set[types.FieldTaxID] = nil
		} else {
			set[types.FieldTaxID] = digits(text(v))
		}
	}
	if v, ok := set[types.FieldStatus]; ok {
		status := strings.TrimSpace(text(v))
		if !slices.Contains(types.Statuses, status) {
			return fmt.Errorf("%w: %q", ErrInvalidStatus, status)
		}
		set[types.FieldStatus] = status
	}
	if v, ok := set[types.FieldCategory]; ok {
		category, err := s.category(ctx, text(v))
		if err != nil {
			return err
		}
		set[types.FieldCategory] = category
	}
	if v, ok := set[types.FieldCreatedAt]; ok {
		t, err := parseDay(text(v))
		if err != nil {
			return err
		}
		set[types.FieldCreatedAtTime] = t
	}

	_, byIn := set[fieldPickedUpBy]
	_, onIn := set[fieldPickedUpOn]
	if byIn || onIn {
		who := strings.TrimSpace(text(set[fieldPickedUpBy]))
		when := strings.TrimSpace(text(set[fieldPickedUpOn]))
		if (who == "") != (when == "") {
			return fmt.Errorf("pickup: %w", ErrIncompletePair)
		}
		if when != "" {
			t, err := parseDay(when)
			if err != nil {
				return err
			}
			set[fieldPickedUpDT] = t
		} else {
			set[fieldPickedUpBy] = ""
			set[fieldPickedUpOn] = ""
			unset = append(unset, fieldPickedUpDT)
		}
	}
	for i := 1; i <= requirementCount; i++ {
		u, err := applyRequirement(i, rec, set, admin)
		if err != nil {
			return err
		}
		unset = append(unset, u...)
	}

	at := s.stamp()
	set[types.FieldLastChangedAt] = at
	set[types.FieldLastChangedBy] = by
	diff := changeList(rec, set, unset)

	res, err := s.records.UpdateOne(ctx, types.Where(types.Eq(types.IdentityKey, id)), types.Update{
		Set:   set,
		Unset: unset,
		Push:  map[string]any{types.FieldChangeHistory: historyEntry(ActionEdit, by, at, diff)},
	})
	if err != nil {
		return fmt.Errorf("update record: %w", err)
	}
	if res.Matched == 0 {
		return types.ErrNotFound
	}
	s.log.Info().Str("numero", rec.String(types.FieldCode)).Int("changes", len(diff)).Msg("record edited")

	taxID := set.String(types.FieldTaxID)
	if taxID == "" {
		taxID = rec.String(types.FieldTaxID)
	}
	noTaxID := rec.Bool(types.FieldNoTaxID)
	if v, ok := set[types.FieldNoTaxID].(bool); ok {
		noTaxID = v
	}
	if taxID == "" || noTaxID {
		return nil
	}
	sync := map[string]any{}
	for _, f := range []string{types.FieldRequester, types.FieldContact} {
		if v := set.String(f); v != "" {
			sync[f] = v
		}
	}
	return s.syncRequester(ctx, types.Where(types.Eq(types.FieldTaxID, taxID), types.Ne(types.IdentityKey, id)), sync)
}

// applyRequirement validates the i-th requirement round in set against the
// stored record, derives timestamp twins and returns the twins to unset.
func applyRequirement(i int, rec, set types.Document, admin bool) ([]string, error) {
	r := requirementFields(i)
	fields := []string{r.pickedUpBy, r.pickedUpOn, r.resubmittedBy, r.resubmittedOn}

	prevAny, changed := false, false
	next := make(map[string]string, len(fields))
	for _, f := range fields {
		prev := strings.TrimSpace(rec.String(f))
		prevAny = prevAny || prev != ""
		next[f] = prev
		if v, ok := set[f]; ok {
			next[f] = strings.TrimSpace(text(v))
			changed = changed || next[f] != prev
		}
	}
	if prevAny && changed && !admin {
		return nil, fmt.Errorf("requirement %d: %w", i, ErrForbidden)
	}
	if (next[r.pickedUpBy] == "") != (next[r.pickedUpOn] == "") {
		return nil, fmt.Errorf("requirement %d pickup: %w", i, ErrIncompletePair)
	}
	if (next[r.resubmittedBy] == "") != (next[r.resubmittedOn] == "") {
		return nil, fmt.Errorf("requirement %d resubmission: %w", i, ErrIncompletePair)
	}

	var unset []string
	for _, f := range []string{r.pickedUpOn, r.resubmittedOn} {
		if _, ok := set[f]; !ok {
			continue
		}
		if next[f] == "" {
			unset = append(unset, f+"_dt")
			continue
		}
		t, err := parseDay(next[f])
		if err != nil {
			return nil, fmt.Errorf("requirement %d: %w", i, err)
		}
		set[f+"_dt"] = t
	}
	return unset, nil
}

// changeList compares the tracked fields of rec against the pending set and
// unset operations.
func changeList(rec, set types.Document, unset []string) []Change {
	var out []Change
	for _, f := range trackedFields {
		v, inSet := set[f]
		inUnset := slices.Contains(unset, f)
		if !inSet && !inUnset {
			continue
		}
		to := ""
		if !inUnset {
			to = text(v)
		}
		if from := text(rec[f]); from != to {
			out = append(out, Change{Field: f, From: from, To: to})
		}
	}
	return out
}

// SoftDelete marks a record as deleted and locks it. Only administrators may
// delete.
func (s *Service) SoftDelete(ctx context.Context, id any, by string) error {
	if err := s.requireAdmin(ctx, by); err != nil {
		return err
	}
	at := s.stamp()
	res, err := s.records.UpdateOne(ctx, types.Where(types.Eq(types.IdentityKey, id)), types.Update{
		Set: map[string]any{
			types.FieldStatus:        types.StatusDeleted,
			types.FieldEditable:      false,
			types.FieldLastChangedBy: by,
			types.FieldLastChangedAt: at,
		},
		Push: map[string]any{types.FieldChangeHistory: historyEntry(ActionDelete, by, at, nil)},
	})
	if err != nil {
		return fmt.Errorf("soft delete: %w", err)
	}
	if res.Matched == 0 {
		return types.ErrNotFound
	}
	s.log.Info().Any("id", id).Str("by", by).Msg("record marked deleted")
	return nil
}

// Purge removes a record permanently after writing an audit copy to the
// deleted-records collection. Only administrators may purge.
func (s *Service) Purge(ctx context.Context, id any, by, reason string) error {
	if err := s.requireAdmin(ctx, by); err != nil {
		return err
	}
	rec, err := s.records.Get(ctx, id)
	if err != nil {
		return err
	}
	snapshot := make(map[string]any, len(rec))
	for k, v := range rec {
		if k != types.IdentityKey {
			snapshot[k] = v
		}
	}
	audit := types.Document{
		types.FieldOriginalID:       document.IDString(rec[types.IdentityKey]),
		types.FieldCode:             rec[types.FieldCode],
		types.FieldRequester:        rec[types.FieldRequester],
		types.FieldTaxID:            rec[types.FieldTaxID],
		types.FieldDeletedAt:        s.stamp(),
		types.FieldDeletedBy:        by,
		types.FieldReason:           reason,
		types.FieldOriginalSnapshot: snapshot,
	}
	if _, err := s.deleted.InsertOne(ctx, audit); err != nil {
		return fmt.Errorf("write deletion audit: %w", err)
	}
	res, err := s.records.DeleteOne(ctx, types.Where(types.Eq(types.IdentityKey, id)))
	if err != nil {
		return fmt.Errorf("delete record: %w", err)
	}
	if res.Count == 0 {
		return types.ErrNotFound
	}
	s.log.Info().Str("numero", rec.String(types.FieldCode)).Str("by", by).Msg("record purged")
	return nil
}
