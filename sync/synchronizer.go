package sync

import (
	"context"
	"errors"
	"fmt"
)

// RowRange selects the rows of a file to process. Rows are numbered from 1.
type RowRange struct {
	Start int
	// End is the last row to process, 0 for no limit.
	End int
}

// NewRowRange builds a range from a start row and either an end row or a row count.
func NewRowRange(start int, end int, count int) (RowRange, error) {
	if start < 1 {
		return RowRange{}, fmt.Errorf("start row must be 1 or more, have %d", start)
	}
	if end > 0 && count > 0 {
		return RowRange{}, errors.New("end and count are mutually exclusive")
	}
	if count < 0 || end < 0 {
		return RowRange{}, errors.New("end and count must not be negative")
	}
	if count > 0 {
		end = start + count - 1
	}
	if end > 0 && end < start {
		return RowRange{}, fmt.Errorf("end row %d is before start row %d", end, start)
	}
	return RowRange{Start: start, End: end}, nil
}

func (r RowRange) Before(row int) bool {
	return row < r.Start
}

func (r RowRange) After(row int) bool {
	return r.End > 0 && row > r.End
}

// Synchronizer creates or updates a CRM contact for every row of an export.
// It embeds *SyncContext for shared sync configuration.
type Synchronizer struct {
	*SyncContext

	CRM        CRMClient
	TagMapping TagMapping
	Range      RowRange
	// Done holds rows completed by an earlier run; they are skipped.
	Done map[int]bool
	// Log receives one line per row when set.
	Log *RunLog
}

func NewSynchronizer(sc *SyncContext, crm CRMClient) *Synchronizer {
	return &Synchronizer{
		SyncContext: sc,
		CRM:         crm,
		Range:       RowRange{Start: 1},
	}
}

// Run syncs every row and returns the summary. Row failures are counted, not
// returned. An error is returned only when the run cannot go on: the rows
// cannot be read, the CRM rejects the credentials, the log cannot be written
// or ctx is done. The summary then covers the rows processed so far.
func (s *Synchronizer) Run(ctx context.Context, rows Rows) (Summary, error) {
	summary := Summary{RunID: s.RunID}

	for rows.Next() {
		if err := ctx.Err(); err != nil {
			return summary, err
		}
		row := rows.Row()
		if s.Range.After(row.Number) {
			break
		}

		var result SyncResult
		if s.Range.Before(row.Number) || s.Done[row.Number] {
			result = SyncResult{Row: row.Number, Outcome: Skipped}
		} else {
			var err error
			result, err = s.SyncRow(ctx, row)
			if err != nil {
				return summary, fmt.Errorf("row %d: %w", row.Number, err)
			}
		}

		summary.Add(result)
		if s.Log != nil {
			if err := s.Log.Record(result); err != nil {
				return summary, fmt.Errorf("failed to write log: %w", err)
			}
		}
	}

	if err := rows.Err(); err != nil {
		return summary, err
	}
	return summary, nil
}

// SyncRow syncs one row. Validation and remote failures are reported in the
// result; the error is only set for failures that must stop the run.
func (s *Synchronizer) SyncRow(ctx context.Context, row Row) (SyncResult, error) {
	result := SyncResult{Row: row.Number}

	record, err := ParseContactRecord(row, s.Config, s.TagMapping)
	result.Key = record.Key()
	if err != nil {
		return s.failed(ctx, result, err)
	}

	backoff := s.Config.Backoff()

	matches, err := withRetry(ctx, backoff, func(ctx context.Context) ([]Contact, error) {
		return s.CRM.FindContacts(ctx, record)
	})
	if err != nil {
		return s.failed(ctx, result, err)
	}

	switch len(matches) {
	case 0:
		result.Actions = append(result.Actions, "create")
		contact := Contact{Record: record, Tags: record.Tags, AddedTags: record.Tags}
		if !s.DryRun {
			contact, err = withRetry(ctx, backoff, func(ctx context.Context) (Contact, error) {
				return s.CRM.CreateContact(ctx, record)
			})
			if err != nil {
				return s.failed(ctx, result, err)
			}
		}
		result.Outcome = Created
		result.Actions = append(result.Actions, describeContact(contact)...)
		s.Verbosef("[%04d] created %s (vanId %d)\n", row.Number, result.Key, contact.ID)

	case 1:
		contact := matches[0].Merge(record, s.Overwrite)
		result.Actions = append(result.Actions, "update")
		if !s.DryRun {
			contact, err = withRetry(ctx, backoff, func(ctx context.Context) (Contact, error) {
				return s.CRM.UpdateContact(ctx, contact)
			})
			if err != nil {
				return s.failed(ctx, result, err)
			}
		}
		result.Outcome = Updated
		result.Actions = append(result.Actions, describeContact(contact)...)
		s.Verbosef("[%04d] updated %s (vanId %d)\n", row.Number, result.Key, contact.ID)

	default:
		for _, m := range matches {
			result.Actions = append(result.Actions, fmt.Sprintf("vanId %d", m.ID))
		}
		return s.failed(ctx, result, ErrAmbiguousMatch)
	}

	return result, nil
}

// failed records err as the reason a row failed, unless err must stop the run.
func (s *Synchronizer) failed(ctx context.Context, result SyncResult, err error) (SyncResult, error) {
	if errors.Is(err, ErrUnauthorized) {
		return result, err
	}
	if ctx.Err() != nil {
		return result, ctx.Err()
	}
	result.Outcome = Failed
	result.Reason = err.Error()
	return result, nil
}

// describeContact lists the phones and added tags of a contact for the run log.
func describeContact(contact Contact) []string {
	var result []string
	for _, p := range contact.Record.Phones {
		switch {
		case p.Column == "":
			continue
		case p.Type == PhoneTypeCell && p.OptInStatus == PhoneOptInOptedIn:
			result = append(result, "mobile subscribed")
		case p.Type == PhoneTypeCell:
			result = append(result, "mobile")
		default:
			result = append(result, p.Column)
		}
	}
	result = append(result, contact.AddedTags...)
	result = append(result, contact.Record.Warnings...)
	return result
}
