package testutil

import (
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/url"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"sync"
	"testing"
)

const (
	formToken     = "form-token-7f3a"
	sessionCookie = "pixelbuddha_session"
	flexibleKey   = "___nova_flexible_content_fields"
)

type RecordedFile struct {
	FileName string
	MimeType string
	Data     []byte
}

// RecordedRequest is one request as the panel received it.
type RecordedRequest struct {
	Method string
	Path   string
	Query  url.Values
	Header http.Header
	Form   url.Values
	Files  map[string]RecordedFile
}

type Record struct {
	ID     int
	Fields []Field
}

// Field finds an attribute, searching nested field groups too.
func (r Record) Field(attribute string) (Field, bool) {
	return findField(r.Fields, attribute)
}

func (r Record) Value(attribute string) any {
	f, ok := r.Field(attribute)
	if !ok {
		return nil
	}
	return f["value"]
}

func findField(fields []Field, attribute string) (Field, bool) {
	for _, f := range fields {
		if f.Attribute() == attribute {
			return f, true
		}
		if nested, ok := f["fields"].([]Field); ok {
			found, ok := findField(nested, attribute)
			if ok {
				return found, true
			}
		}
	}
	return nil, false
}

type edgeKey struct {
	resource     string
	id           int
	relationship string
}

// Panel is an in-process imitation of the admin panel: form login, XSRF
// cookie rotation, resource listings with pagination, details, update
// fields, multipart create/update, deletes, relation attach/detach and
// nova-attach-many lookups. Every request is recorded.
type Panel struct {
	Server   *httptest.Server
	Login    string
	Password string

	// when set, every route requires these basic auth credentials
	BasicUser     string
	BasicPassword string

	// Components tags form-submitted attributes with a field component.
	Components map[string]string

	mu       sync.Mutex
	xsrf     string
	xsrfSeq  int
	session  string
	requests []RecordedRequest
	records  map[string]map[int]*Record
	order    map[string][]int
	nextID   map[string]int
	edges    map[edgeKey][]int
	inverse  map[string]edgeKey
	handlers map[string]http.HandlerFunc
	media    map[int]RecordedFile
	mediaSeq int
}

func NewPanel(t testing.TB) *Panel {
	p := &Panel{
		Login:    "admin@example.com",
		Password: "secret",
		records:  map[string]map[int]*Record{},
		order:    map[string][]int{},
		nextID:   map[string]int{},
		edges:    map[edgeKey][]int{},
		inverse:  map[string]edgeKey{},
		handlers: map[string]http.HandlerFunc{},
		media:    map[int]RecordedFile{},
		mediaSeq: 1000,
		Components: map[string]string{
			"s3_path":  "file-field",
			"vps_path": "file-field",
		},
	}
	p.rotateXSRF()
	p.Server = httptest.NewServer(p)
	t.Cleanup(p.Server.Close)
	return p
}

func (p *Panel) URL() string {
	return p.Server.URL
}

func (p *Panel) rotateXSRF() {
	p.xsrfSeq++
	// the value needs url escaping, like the real cookie
	p.xsrf = fmt.Sprintf("eyJpdiI6%d==/xsrf+%d", p.xsrfSeq, p.xsrfSeq)
}

// Handle overrides the generic behaviour for one method and path.
func (p *Panel) Handle(method, path string, handler http.HandlerFunc) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.handlers[method+" "+path] = handler
}

// Put stores a record, replacing an existing one with the same id.
func (p *Panel) Put(resource string, id int, fields ...Field) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.put(resource, &Record{ID: id, Fields: fields})
}

func (p *Panel) put(resource string, rec *Record) {
	if p.records[resource] == nil {
		p.records[resource] = map[int]*Record{}
	}
	if _, exists := p.records[resource][rec.ID]; !exists {
		p.order[resource] = append(p.order[resource], rec.ID)
	}
	p.records[resource][rec.ID] = rec
	if rec.ID >= p.nextID[resource] {
		p.nextID[resource] = rec.ID + 1
	}
}

func (p *Panel) Get(resource string, id int) (Record, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	rec, ok := p.records[resource][id]
	if !ok {
		return Record{}, false
	}
	return *rec, true
}

func (p *Panel) SetNextID(resource string, id int) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.nextID[resource] = id
}

// SetEdges replaces the members of a relation.
func (p *Panel) SetEdges(viaResource string, viaID int, relationship string, ids ...int) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.edges[edgeKey{viaResource, viaID, relationship}] = append([]int{}, ids...)
}

func (p *Panel) Edges(viaResource string, viaID int, relationship string) []int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]int{}, p.edges[edgeKey{viaResource, viaID, relationship}]...)
}

// LinkInverse declares that attaching `relationship` from a `resource`
// row adds the row to `viaRelationship` of the `viaResource` owner.
func (p *Panel) LinkInverse(resource, relationship, viaResource, viaRelationship string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.inverse[resource+"."+relationship] = edgeKey{resource: viaResource, relationship: viaRelationship}
}

// AddMedia stores downloadable bytes and returns the media id.
func (p *Panel) AddMedia(file RecordedFile) (int, string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.addMedia(file)
}

func (p *Panel) addMedia(file RecordedFile) (int, string) {
	p.mediaSeq++
	p.media[p.mediaSeq] = file
	return p.mediaSeq, fmt.Sprintf("%s/storage/%d/%s", p.Server.URL, p.mediaSeq, file.FileName)
}

func (p *Panel) Requests() []RecordedRequest {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]RecordedRequest{}, p.requests...)
}

// RequestsTo filters the recorded requests by method and path prefix.
func (p *Panel) RequestsTo(method, pathPrefix string) []RecordedRequest {
	var out []RecordedRequest
	for _, r := range p.Requests() {
		if r.Method == method && strings.HasPrefix(r.Path, pathPrefix) {
			out = append(out, r)
		}
	}
	return out
}

func (p *Panel) ResetRequests() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.requests = nil
}

func (p *Panel) record(r *http.Request) RecordedRequest {
	rec := RecordedRequest{
		Method: r.Method,
		Path:   r.URL.Path,
		Query:  r.URL.Query(),
		Header: r.Header.Clone(),
		Form:   url.Values{},
		Files:  map[string]RecordedFile{},
	}

	contentType := r.Header.Get("Content-Type")
	switch {
	case strings.HasPrefix(contentType, "multipart/form-data"):
		if err := r.ParseMultipartForm(32 << 20); err != nil {
			break
		}
		for k, v := range r.MultipartForm.Value {
			rec.Form[k] = v
		}
		for k, headers := range r.MultipartForm.File {
			if len(headers) == 0 {
				continue
			}
			rec.Files[k] = readFile(headers[0])
		}
	case strings.HasPrefix(contentType, "application/x-www-form-urlencoded"):
		if err := r.ParseForm(); err == nil {
			rec.Form = r.PostForm
		}
	}

	p.mu.Lock()
	p.requests = append(p.requests, rec)
	p.mu.Unlock()
	return rec
}

func readFile(h *multipart.FileHeader) RecordedFile {
	f, err := h.Open()
	if err != nil {
		return RecordedFile{FileName: h.Filename}
	}
	defer f.Close()
	data, _ := io.ReadAll(f)
	return RecordedFile{
		FileName: h.Filename,
		MimeType: h.Header.Get("Content-Type"),
		Data:     data,
	}
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(body)
}

func (p *Panel) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if p.BasicUser != "" {
		user, pass, ok := r.BasicAuth()
		if !ok || user != p.BasicUser || pass != p.BasicPassword {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
	}

	rec := p.record(r)

	switch {
	case rec.Path == "/admin/login":
		p.serveLogin(w, r, rec)
		return
	case rec.Path == "/admin/dashboard":
		w.Write([]byte("<html><body>dashboard</body></html>"))
		return
	case strings.HasPrefix(rec.Path, "/storage/"):
		p.serveMedia(w, rec)
		return
	}

	p.mu.Lock()
	authenticated := false
	if c, err := r.Cookie(sessionCookie); err == nil && p.session != "" && c.Value == p.session {
		authenticated = true
	}
	xsrf := p.xsrf
	handler := p.handlers[rec.Method+" "+rec.Path]
	p.mu.Unlock()

	if !authenticated {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"message": "Unauthenticated."})
		return
	}
	if rec.Method != http.MethodGet {
		if r.Header.Get("X-CSRF-TOKEN") != xsrf ||
			r.Header.Get("X-XSRF-TOKEN") != xsrf ||
			r.Header.Get("X-Requested-With") != "XMLHttpRequest" {
			writeJSON(w, 419, map[string]string{"message": "CSRF token mismatch."})
			return
		}
		p.mu.Lock()
		p.rotateXSRF()
		xsrf = p.xsrf
		p.mu.Unlock()
		http.SetCookie(w, &http.Cookie{Name: "XSRF-TOKEN", Value: url.QueryEscape(xsrf), Path: "/"})
	}

	if handler != nil {
		handler(w, r)
		return
	}
	p.serveAPI(w, rec)
}

func (p *Panel) serveLogin(w http.ResponseWriter, r *http.Request, rec RecordedRequest) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if rec.Method == http.MethodGet {
		http.SetCookie(w, &http.Cookie{Name: "XSRF-TOKEN", Value: url.QueryEscape(p.xsrf), Path: "/"})
		alert := ""
		if rec.Query.Get("failed") == "1" {
			alert = `<div class="alert alert-danger">These credentials do not match our records.</div>`
		}
		fmt.Fprintf(w, `<html><body>%s<form method="POST" action="/admin/login">
<input type="hidden" name="_token" value="%s">
<input type="email" name="email"><input type="password" name="password">
</form></body></html>`, alert, formToken)
		return
	}

	if rec.Form.Get("_token") != formToken {
		w.WriteHeader(419)
		w.Write([]byte("Page Expired"))
		return
	}
	if rec.Form.Get("email") != p.Login || rec.Form.Get("password") != p.Password {
		http.Redirect(w, r, "/admin/login?failed=1", http.StatusFound)
		return
	}
	p.session = fmt.Sprintf("session-%d", p.xsrfSeq)
	p.rotateXSRF()
	http.SetCookie(w, &http.Cookie{Name: sessionCookie, Value: p.session, Path: "/"})
	http.SetCookie(w, &http.Cookie{Name: "XSRF-TOKEN", Value: url.QueryEscape(p.xsrf), Path: "/"})
	http.Redirect(w, r, "/admin/dashboard", http.StatusFound)
}

func (p *Panel) serveMedia(w http.ResponseWriter, rec RecordedRequest) {
	parts := strings.Split(strings.Trim(rec.Path, "/"), "/")
	if len(parts) < 2 {
		w.WriteHeader(http.StatusNotFound)
		return
	}
	id, _ := strconv.Atoi(parts[1])
	p.mu.Lock()
	file, ok := p.media[id]
	p.mu.Unlock()
	if !ok {
		w.WriteHeader(http.StatusNotFound)
		return
	}
	w.Header().Set("Content-Type", file.MimeType)
	w.Write(file.Data)
}

func (p *Panel) serveAPI(w http.ResponseWriter, rec RecordedRequest) {
	parts := strings.Split(strings.Trim(rec.Path, "/"), "/")

	p.mu.Lock()
	defer p.mu.Unlock()

	if len(parts) == 6 && parts[0] == "nova-vendor" && parts[1] == "nova-attach-many" && parts[4] == "attachable" {
		p.serveAttachable(w, parts[2], parts[3], parts[5])
		return
	}
	if len(parts) < 2 || parts[0] != "nova-api" {
		writeJSON(w, http.StatusNotFound, map[string]string{"message": "not found"})
		return
	}

	resource := parts[1]
	switch {
	case len(parts) == 2 && rec.Method == http.MethodGet:
		p.serveList(w, rec, resource)
	case len(parts) == 2 && rec.Method == http.MethodPost:
		p.serveCreate(w, rec, resource)
	case len(parts) == 2 && rec.Method == http.MethodDelete:
		for _, raw := range rec.Query["resources[]"] {
			id, _ := strconv.Atoi(raw)
			p.remove(resource, id)
		}
		writeJSON(w, http.StatusOK, map[string]any{})
	case len(parts) == 3 && parts[2] == "detach" && rec.Method == http.MethodDelete:
		p.serveDetach(w, rec)
	case len(parts) == 3 && parts[2] == "action" && rec.Method == http.MethodPost:
		writeJSON(w, http.StatusOK, map[string]string{"message": "The action ran successfully!"})
	case len(parts) == 3 && rec.Method == http.MethodGet:
		p.serveDetail(w, resource, parts[2])
	case len(parts) == 3 && rec.Method == http.MethodPost:
		p.serveUpdate(w, rec, resource, parts[2])
	case len(parts) == 4 && parts[3] == "update-fields" && rec.Method == http.MethodGet:
		p.serveUpdateFields(w, resource, parts[2])
	case len(parts) == 5 && parts[3] == "attach-morphed" && rec.Method == http.MethodPost:
		p.serveAttach(w, rec, resource, parts[2], parts[4])
	default:
		writeJSON(w, http.StatusNotFound, map[string]string{"message": "not found"})
	}
}

func (p *Panel) remove(resource string, id int) {
	delete(p.records[resource], id)
	ids := p.order[resource]
	for i, other := range ids {
		if other == id {
			p.order[resource] = append(ids[:i:i], ids[i+1:]...)
			break
		}
	}
}

func (p *Panel) lookup(w http.ResponseWriter, resource, rawID string) (*Record, bool) {
	id, err := strconv.Atoi(rawID)
	if err != nil {
		writeJSON(w, http.StatusNotFound, map[string]string{"message": "not found"})
		return nil, false
	}
	rec, ok := p.records[resource][id]
	if !ok {
		writeJSON(w, http.StatusNotFound, map[string]string{"message": "not found"})
		return nil, false
	}
	return rec, true
}

func matchesSearch(rec *Record, search string) bool {
	search = strings.ToLower(search)
	for _, f := range rec.Fields {
		s, ok := f["value"].(string)
		if ok && strings.Contains(strings.ToLower(s), search) {
			return true
		}
	}
	return false
}

func (p *Panel) serveList(w http.ResponseWriter, rec RecordedRequest, resource string) {
	type row struct {
		ID     map[string]int `json:"id"`
		Fields []Field        `json:"fields"`
	}

	var rows []row
	if via := rec.Query.Get("viaResource"); via != "" {
		viaID, _ := strconv.Atoi(rec.Query.Get("viaResourceId"))
		key := edgeKey{via, viaID, rec.Query.Get("viaRelationship")}
		for _, id := range p.edges[key] {
			fields := []Field{}
			if stored, ok := p.records[resource][id]; ok {
				fields = stored.Fields
			}
			rows = append(rows, row{ID: map[string]int{"value": id}, Fields: fields})
		}
	} else {
		search := rec.Query.Get("search")
		for _, id := range p.order[resource] {
			stored := p.records[resource][id]
			if search != "" && !matchesSearch(stored, search) {
				continue
			}
			rows = append(rows, row{ID: map[string]int{"value": id}, Fields: stored.Fields})
		}
	}

	perPage, _ := strconv.Atoi(rec.Query.Get("perPage"))
	if perPage <= 0 {
		perPage = 25
	}
	page, _ := strconv.Atoi(rec.Query.Get("page"))
	if page <= 0 {
		page = 1
	}
	start := min((page-1)*perPage, len(rows))
	end := min(start+perPage, len(rows))

	var next any
	if end < len(rows) {
		next = fmt.Sprintf("%s%s?page=%d", p.Server.URL, rec.Path, page+1)
	}
	pageRows := rows[start:end]
	if pageRows == nil {
		pageRows = []row{}
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"resources":     pageRows,
		"next_page_url": next,
		"total":         len(rows),
		"per_page":      perPage,
	})
}

func (p *Panel) serveDetail(w http.ResponseWriter, resource, rawID string) {
	stored, ok := p.lookup(w, resource, rawID)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"resource": map[string]any{
			"id":     map[string]int{"value": stored.ID},
			"fields": stored.Fields,
		},
	})
}

func (p *Panel) serveUpdateFields(w http.ResponseWriter, resource, rawID string) {
	stored, ok := p.lookup(w, resource, rawID)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"fields": []Field{Container("panel", stored.Fields...)},
	})
}

func (p *Panel) serveAttachable(w http.ResponseWriter, resource, rawID, relation string) {
	stored, ok := p.lookup(w, resource, rawID)
	if !ok {
		return
	}
	selected := []int{}
	if raw, ok := stored.Value(relation).(string); ok {
		json.Unmarshal([]byte(raw), &selected)
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"available": []any{},
		"selected":  selected,
	})
}

func (p *Panel) serveCreate(w http.ResponseWriter, rec RecordedRequest, resource string) {
	if rec.Query.Get("editMode") != "create" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"message": "missing editMode"})
		return
	}
	id := p.nextID[resource]
	if id == 0 {
		id = 1
	}
	p.put(resource, &Record{ID: id, Fields: p.formFields(rec)})
	writeJSON(w, http.StatusCreated, map[string]any{
		"id":       id,
		"resource": map[string]any{"id": id},
		"redirect": fmt.Sprintf("/resources/%s/%d", resource, id),
	})
}

func (p *Panel) serveUpdate(w http.ResponseWriter, rec RecordedRequest, resource, rawID string) {
	if rec.Form.Get("_method") != http.MethodPut {
		writeJSON(w, http.StatusMethodNotAllowed, map[string]string{"message": "method not allowed"})
		return
	}
	stored, ok := p.lookup(w, resource, rawID)
	if !ok {
		return
	}
	stored.Fields = mergeFields(stored.Fields, p.formFields(rec))
	writeJSON(w, http.StatusOK, map[string]any{
		"id":       stored.ID,
		"resource": map[string]any{"id": stored.ID},
	})
}

func (p *Panel) serveAttach(w http.ResponseWriter, rec RecordedRequest, resource, rawID, other string) {
	id, _ := strconv.Atoi(rawID)
	member, err := strconv.Atoi(rec.Form.Get(other))
	if err != nil {
		writeJSON(w, 422, map[string]string{"message": "missing " + other})
		return
	}
	relationship := rec.Form.Get("viaRelationship")

	key := edgeKey{resource, id, relationship}
	if inverse, ok := p.inverse[resource+"."+relationship]; ok {
		key = edgeKey{inverse.resource, member, inverse.relationship}
		member = id
	}
	for _, existing := range p.edges[key] {
		if existing == member {
			writeJSON(w, 422, map[string]string{"message": "already attached"})
			return
		}
	}
	p.edges[key] = append(p.edges[key], member)
	writeJSON(w, http.StatusOK, map[string]any{})
}

func (p *Panel) serveDetach(w http.ResponseWriter, rec RecordedRequest) {
	viaID, _ := strconv.Atoi(rec.Query.Get("viaResourceId"))
	key := edgeKey{rec.Query.Get("viaResource"), viaID, rec.Query.Get("viaRelationship")}

	remove := map[int]bool{}
	for _, raw := range rec.Query["resources[]"] {
		id, _ := strconv.Atoi(raw)
		remove[id] = true
	}
	kept := []int{}
	for _, id := range p.edges[key] {
		if !remove[id] {
			kept = append(kept, id)
		}
	}
	p.edges[key] = kept
	writeJSON(w, http.StatusOK, map[string]any{})
}

var (
	optionName     = regexp.MustCompile(`^options\[(.+)\]$`)
	mediaName      = regexp.MustCompile(`^__media__\[(.+)\]\[(\d+)\]$`)
	mediaPropsName = regexp.MustCompile(`^__media-custom-properties__\[(.+)\]\[(\d+)\]\[(.+)\]$`)
)

var skippedFormFields = map[string]bool{
	"_method":         true,
	"_retrieved_at":   true,
	"viaResource":     true,
	"viaResourceId":   true,
	"viaRelationship": true,
	flexibleKey:       true,
}

// formFields turns a submitted form into stored fields, the way the panel
// would serialize them back.
func (p *Panel) formFields(rec RecordedRequest) []Field {
	flexible := map[string]bool{}
	var flexibleNames []string
	json.Unmarshal([]byte(rec.Form.Get(flexibleKey)), &flexibleNames)
	for _, name := range flexibleNames {
		flexible[name] = true
	}

	names := make([]string, 0, len(rec.Form)+len(rec.Files))
	for name := range rec.Form {
		names = append(names, name)
	}
	for name := range rec.Files {
		if _, ok := rec.Form[name]; !ok {
			names = append(names, name)
		}
	}
	sort.Strings(names)

	type mediaSlot struct {
		index int
		item  MediaItem
	}
	media := map[string][]mediaSlot{}
	var mediaOrder []string
	addMedia := func(field string, index int, item MediaItem) {
		if _, ok := media[field]; !ok {
			mediaOrder = append(mediaOrder, field)
		}
		media[field] = append(media[field], mediaSlot{index, item})
	}

	var fields []Field
	var options []Field
	for _, name := range names {
		value := rec.Form.Get(name)
		if skippedFormFields[name] || mediaPropsName.MatchString(name) {
			continue
		}
		if base, ok := strings.CutSuffix(name, "_trashed"); ok && rec.Form.Has(base) {
			continue
		}
		if base, ok := strings.CutSuffix(name, "_type"); ok && rec.Form.Has(base) {
			continue
		}

		if m := mediaName.FindStringSubmatch(name); m != nil {
			index, _ := strconv.Atoi(m[2])
			item := MediaItem{CustomProperties: map[string]any{}}
			if file, ok := rec.Files[name]; ok {
				item.ID, item.OriginalURL = p.addMedia(file)
				item.FileName = file.FileName
				item.MimeType = file.MimeType
			} else {
				item.ID, _ = strconv.Atoi(value)
				if stored, ok := p.media[item.ID]; ok {
					item.FileName = stored.FileName
					item.MimeType = stored.MimeType
					item.OriginalURL = fmt.Sprintf("%s/storage/%d/%s", p.Server.URL, item.ID, stored.FileName)
				}
			}
			alt := rec.Form.Get(fmt.Sprintf("__media-custom-properties__[%s][%d][alt]", m[1], index))
			if alt != "" {
				item.CustomProperties["alt"] = alt
			}
			addMedia(m[1], index, item)
			continue
		}

		if m := optionName.FindStringSubmatch(name); m != nil {
			options = append(options, Value(m[1], value))
			continue
		}

		switch {
		case flexible[name]:
			var blocks []Block
			json.Unmarshal([]byte(value), &blocks)
			fields = append(fields, Flexible(name, blocks...))
		case rec.Form.Has(name + "_type"):
			id, _ := strconv.Atoi(value)
			fields = append(fields, MorphTo(name, rec.Form.Get(name+"_type"), id))
		case rec.Form.Has(name + "_trashed"):
			id, _ := strconv.Atoi(value)
			fields = append(fields, BelongsTo(name, id))
		default:
			if file, ok := rec.Files[name]; ok {
				p.addMedia(file)
				fields = append(fields, Value(name, file.FileName))
				continue
			}
			field := Value(name, value)
			if component := p.Components[name]; component != "" {
				field["component"] = component
			}
			fields = append(fields, field)
		}
	}

	for _, field := range mediaOrder {
		slots := media[field]
		sort.Slice(slots, func(i, j int) bool { return slots[i].index < slots[j].index })
		items := make([]MediaItem, len(slots))
		for i, s := range slots {
			items[i] = s.item
		}
		fields = append(fields, Media(field, items...))
	}
	if len(options) > 0 {
		fields = append(fields, OptionGroup(options...))
	}
	return fields
}

func mergeFields(existing, updates []Field) []Field {
	out := append([]Field{}, existing...)
	for _, u := range updates {
		replaced := false
		for i, e := range out {
			if e.Attribute() != u.Attribute() {
				continue
			}
			if u.Attribute() == "options" {
				eFields, _ := e["fields"].([]Field)
				uFields, _ := u["fields"].([]Field)
				out[i] = OptionGroup(mergeFields(eFields, uFields)...)
			} else {
				out[i] = u
			}
			replaced = true
			break
		}
		if !replaced {
			out = append(out, u)
		}
	}
	return out
}
