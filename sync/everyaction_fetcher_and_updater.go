package sync

import (
	"context"
	"fmt"
	"net/http"
	"path"
	"strconv"
	"strings"

	"github.com/carlmjohnson/requests"
	"github.com/tidwall/gjson"
)

// EveryActionPageSize is the $top used when listing codes.
const EveryActionPageSize = 200

// EveryActionFetcherAndUpdater handles all EveryAction API operations.
// It embeds *SyncContext for shared sync configuration.
type EveryActionFetcherAndUpdater struct {
	*SyncContext

	// Catalog is loaded on first use when nil.
	Catalog *CodeCatalog
}

func NewEveryActionFetcherAndUpdater(sc *SyncContext) *EveryActionFetcherAndUpdater {
	return &EveryActionFetcherAndUpdater{SyncContext: sc}
}

// EveryActionAPIBuilder returns a new requests.Builder configured for the EveryAction API.
// Redirects are not followed because people/find answers a match with 302 Found.
func (e *EveryActionFetcherAndUpdater) EveryActionAPIBuilder() *requests.Builder {
	result := requests.
		URL(e.Config.API.Endpoint).
		Client(&http.Client{
			Timeout: HTTPRequestTimeout,
			CheckRedirect: func(req *http.Request, via []*http.Request) error {
				return http.ErrUseLastResponse
			},
		}).
		BasicAuth(e.Config.API.ApplicationName, fmt.Sprintf("%s|%d", e.Config.API.Key, e.Config.API.Mode)).
		Accept("application/json")
	if e.RecordRequests {
		result = result.Transport(requests.Record(nil, "testdata/.requests/everyaction"))
	}
	return result
}

// EveryActionError is the error body returned by the EveryAction API.
type EveryActionError struct {
	Errors []struct {
		Code       string   `json:"code"`
		Text       string   `json:"text"`
		Properties []string `json:"properties"`
	} `json:"errors"`
}

func (e EveryActionError) String() string {
	var parts []string
	for _, v := range e.Errors {
		s := v.Text
		if v.Code != "" {
			s = fmt.Sprintf("%s (%s)", v.Text, v.Code)
		}
		if len(v.Properties) > 0 {
			s = fmt.Sprintf("%s [%s]", s, strings.Join(v.Properties, ", "))
		}
		parts = append(parts, s)
	}
	return strings.Join(parts, "; ")
}

// classifyError wraps err with ErrUnauthorized or ErrTransient based on the response status.
func classifyError(op string, err error, body EveryActionError) error {
	if err == nil {
		return nil
	}
	if msg := body.String(); msg != "" {
		err = fmt.Errorf("%w: %s", err, msg)
	}
	switch {
	case requests.HasStatusErr(err, http.StatusUnauthorized, http.StatusForbidden):
		return fmt.Errorf("%s: %w: %w", op, ErrUnauthorized, err)
	case requests.HasStatusErr(err, http.StatusTooManyRequests, http.StatusBadGateway, http.StatusServiceUnavailable, http.StatusGatewayTimeout):
		return fmt.Errorf("%s: %w: %w", op, ErrTransient, err)
	}
	return fmt.Errorf("%s: %w", op, err)
}

// FindPerson runs people/find for one match candidate and returns the matched vanId, or 0.
func (e *EveryActionFetcherAndUpdater) FindPerson(ctx context.Context, candidate []byte) (int, error) {
	var status int
	var location string
	var body string

	err := e.EveryActionAPIBuilder().
		Path("/v4/people/find").
		BodyBytes(candidate).
		ContentType("application/json").
		CheckStatus(http.StatusOK, http.StatusCreated, http.StatusFound, http.StatusNotFound).
		Handle(func(res *http.Response) error {
			status = res.StatusCode
			location = res.Header.Get("Location")
			return requests.ToString(&body)(res)
		}).
		Fetch(ctx)
	if err != nil {
		return 0, classifyError("POST /v4/people/find", err, EveryActionError{})
	}

	if status == http.StatusNotFound {
		return 0, nil
	}
	if vanID := gjson.Get(body, "vanId").Int(); vanID > 0 {
		return int(vanID), nil
	}
	// the vanId may only be given in the Location header
	if location != "" {
		if vanID, err := strconv.Atoi(path.Base(location)); err == nil && vanID > 0 {
			return vanID, nil
		}
	}
	return 0, fmt.Errorf("POST /v4/people/find: status %d without a vanId", status)
}

// FindContacts looks up record by email, then by phone and name, and returns
// every distinct person matched.
func (e *EveryActionFetcherAndUpdater) FindContacts(ctx context.Context, record ContactRecord) ([]Contact, error) {
	var result []Contact
	seen := make(map[int]bool)
	for _, candidate := range MatchCandidates(record) {
		vanID, err := e.FindPerson(ctx, candidate)
		if err != nil {
			return nil, err
		}
		if vanID == 0 || seen[vanID] {
			continue
		}
		seen[vanID] = true
		contact, err := e.GetContact(ctx, vanID)
		if err != nil {
			return nil, err
		}
		result = append(result, contact)
	}
	return result, nil
}

// GetPerson fetches a person with emails, phones and addresses expanded.
func (e *EveryActionFetcherAndUpdater) GetPerson(ctx context.Context, vanID int) (Person, error) {
	var body string
	var errBody EveryActionError

	err := e.EveryActionAPIBuilder().
		Path(fmt.Sprintf("/v4/people/%d", vanID)).
		Param("$expand", "emails,phones,addresses").
		ToString(&body).
		ErrorJSON(&errBody).
		Fetch(ctx)
	if err != nil {
		return Person{}, classifyError(fmt.Sprintf("GET /v4/people/%d", vanID), err, errBody)
	}
	return NewPerson(body), nil
}

// GetContact fetches a person and the names of the activist codes applied to them.
func (e *EveryActionFetcherAndUpdater) GetContact(ctx context.Context, vanID int) (Contact, error) {
	person, err := e.GetPerson(ctx, vanID)
	if err != nil {
		return Contact{}, err
	}
	codes, err := e.ActivistCodesForPerson(ctx, vanID)
	if err != nil {
		return Contact{}, err
	}
	contact := person.Contact(e.Config.PhoneRegion())
	for _, c := range codes {
		contact.Tags = append(contact.Tags, c.Name)
	}
	contact.Record.Tags = contact.Tags
	return contact, nil
}

// ActivistCodesForPerson lists the activist codes applied to a person.
func (e *EveryActionFetcherAndUpdater) ActivistCodesForPerson(ctx context.Context, vanID int) ([]Code, error) {
	var result []Code
	err := e.listPages(ctx, fmt.Sprintf("/v4/people/%d/activistCodes", vanID), nil, func(item gjson.Result) {
		result = append(result, Code{
			ID:   int(item.Get("activistCodeId").Int()),
			Name: item.Get("activistCodeName").String(),
			Type: CodeTypeActivistCode,
		})
	})
	return result, err
}

// ListActivistCodes lists every activist code of the committee.
func (e *EveryActionFetcherAndUpdater) ListActivistCodes(ctx context.Context) ([]Code, error) {
	var result []Code
	err := e.listPages(ctx, "/v4/activistCodes", nil, func(item gjson.Result) {
		result = append(result, Code{
			ID:          int(item.Get("activistCodeId").Int()),
			Name:        item.Get("name").String(),
			Type:        CodeTypeActivistCode,
			Description: item.Get("description").String(),
			Status:      item.Get("status").String(),
		})
	})
	return result, err
}

// ListTagCodes lists the codes of type Tag.
func (e *EveryActionFetcherAndUpdater) ListTagCodes(ctx context.Context) ([]Code, error) {
	var result []Code
	err := e.listPages(ctx, "/v4/codes", map[string]string{"codeType": "Tag"}, func(item gjson.Result) {
		result = append(result, Code{
			ID:          int(item.Get("codeId").Int()),
			Name:        item.Get("name").String(),
			Type:        CodeTypeTag,
			Description: item.Get("description").String(),
		})
	})
	return result, err
}

// listPages follows $top/$skip paging until a page comes back without a nextPageLink.
func (e *EveryActionFetcherAndUpdater) listPages(ctx context.Context, p string, params map[string]string, fn func(item gjson.Result)) error {
	skip := 0
	for {
		var body string
		var errBody EveryActionError
		b := e.EveryActionAPIBuilder().
			Path(p).
			Param("$top", strconv.Itoa(EveryActionPageSize)).
			Param("$skip", strconv.Itoa(skip)).
			ToString(&body).
			ErrorJSON(&errBody)
		for k, v := range params {
			b = b.Param(k, v)
		}
		if err := b.Fetch(ctx); err != nil {
			return classifyError("GET "+p, err, errBody)
		}

		page := gjson.Parse(body)
		items := page.Get("items").Array()
		for _, item := range items {
			fn(item)
		}
		skip += len(items)
		if len(items) == 0 || page.Get("nextPageLink").String() == "" {
			return nil
		}
	}
}

// LoadCodes loads the code catalog used to resolve tag names.
// It is also the first authenticated call of a run, so a bad key fails here.
func (e *EveryActionFetcherAndUpdater) LoadCodes(ctx context.Context) (*CodeCatalog, error) {
	activistCodes, err := e.ListActivistCodes(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list activist codes: %w", err)
	}
	tagCodes, err := e.ListTagCodes(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list tags: %w", err)
	}
	catalog, duplicates := NewCodeCatalog(activistCodes, tagCodes)
	for _, d := range duplicates {
		e.Verbosef("Warning: Ignoring duplicate Tag '%s'\n", d)
	}
	e.Catalog = catalog
	return catalog, nil
}

func (e *EveryActionFetcherAndUpdater) codes(ctx context.Context) (*CodeCatalog, error) {
	if e.Catalog != nil {
		return e.Catalog, nil
	}
	return e.LoadCodes(ctx)
}

// findOrCreate posts a person payload and returns the stored vanId.
func (e *EveryActionFetcherAndUpdater) findOrCreate(ctx context.Context, payload []byte) (int, error) {
	response := struct {
		VanID  int    `json:"vanId"`
		Status string `json:"status"`
	}{}
	var errBody EveryActionError

	err := e.EveryActionAPIBuilder().
		Path("/v4/people/findOrCreate").
		BodyBytes(payload).
		ContentType("application/json").
		ToJSON(&response).
		ErrorJSON(&errBody).
		Fetch(ctx)
	if err != nil {
		return 0, classifyError("POST /v4/people/findOrCreate", err, errBody)
	}
	if response.VanID == 0 {
		return 0, fmt.Errorf("POST /v4/people/findOrCreate: no vanId in response (status %s)", response.Status)
	}
	return response.VanID, nil
}

// CreateContact stores record as a new person and applies its tags.
func (e *EveryActionFetcherAndUpdater) CreateContact(ctx context.Context, record ContactRecord) (Contact, error) {
	payload, err := PersonPayload(record, 0, e.Config.CustomFields.IDs)
	if err != nil {
		return Contact{}, err
	}
	vanID, err := e.findOrCreate(ctx, payload)
	if err != nil {
		return Contact{}, err
	}
	contact := Contact{ID: vanID, Record: record}
	return e.applyTags(ctx, contact, record.Tags)
}

// UpdateContact writes the merged person fields and applies the added tags only.
func (e *EveryActionFetcherAndUpdater) UpdateContact(ctx context.Context, contact Contact) (Contact, error) {
	payload, err := PersonPayload(contact.Record, contact.ID, e.Config.CustomFields.IDs)
	if err != nil {
		return contact, err
	}
	if _, err = e.findOrCreate(ctx, payload); err != nil {
		return contact, err
	}
	return e.applyTags(ctx, contact, contact.AddedTags)
}

// applyTags resolves tag names against the code catalog and applies them.
// Returns contact with AddedTags set to the names that were applied.
func (e *EveryActionFetcherAndUpdater) applyTags(ctx context.Context, contact Contact, tags []string) (Contact, error) {
	contact.AddedTags = nil
	if len(tags) == 0 {
		return contact, nil
	}
	catalog, err := e.codes(ctx)
	if err != nil {
		return contact, err
	}

	var activistCodes []Code
	var tagCodes []Code
	for _, name := range tags {
		code, exists := catalog.Lookup(name)
		if !exists {
			contact.Record.Warnings = append(contact.Record.Warnings, fmt.Sprintf("no code '%s'", name))
			continue
		}
		e.Verbosef("Mapped tag %s to %d (%s)\n", name, code.ID, code.Type)
		if code.Type == CodeTypeActivistCode {
			activistCodes = append(activistCodes, code)
		} else {
			tagCodes = append(tagCodes, code)
		}
	}

	if len(activistCodes) > 0 {
		payload, err := CanvassResponsesPayload(activistCodes)
		if err != nil {
			return contact, err
		}
		var errBody EveryActionError
		op := fmt.Sprintf("POST /v4/people/%d/canvassResponses", contact.ID)
		err = e.EveryActionAPIBuilder().
			Path(fmt.Sprintf("/v4/people/%d/canvassResponses", contact.ID)).
			BodyBytes(payload).
			ContentType("application/json").
			ErrorJSON(&errBody).
			Fetch(ctx)
		if err != nil {
			return contact, classifyError(op, err, errBody)
		}
		for _, c := range activistCodes {
			contact.AddedTags = append(contact.AddedTags, c.Name)
		}
	}

	for _, c := range tagCodes {
		var errBody EveryActionError
		op := fmt.Sprintf("POST /v4/people/%d/codes", contact.ID)
		err = e.EveryActionAPIBuilder().
			Path(fmt.Sprintf("/v4/people/%d/codes", contact.ID)).
			BodyBytes([]byte(fmt.Sprintf(`{"codeId":%d}`, c.ID))).
			ContentType("application/json").
			ErrorJSON(&errBody).
			Fetch(ctx)
		if err != nil {
			return contact, classifyError(op, err, errBody)
		}
		contact.AddedTags = append(contact.AddedTags, c.Name)
	}

	return contact, nil
}

// LookupByEmail finds the people matching email, for the show command.
func (e *EveryActionFetcherAndUpdater) LookupByEmail(ctx context.Context, email string) (Person, bool, error) {
	candidate, err := EmailCandidate(email)
	if err != nil {
		return Person{}, false, err
	}
	vanID, err := e.FindPerson(ctx, candidate)
	if err != nil || vanID == 0 {
		return Person{}, false, err
	}
	person, err := e.GetPerson(ctx, vanID)
	if err != nil {
		return Person{}, false, err
	}
	return person, true, nil
}
