package nova

import (
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/textproto"
	"strconv"
	"strings"
	"time"
)

const flexibleFieldsKey = "___nova_flexible_content_fields"

type FilePart struct {
	FileName string
	MimeType string
	Data     []byte
}

// Part is one multipart field, either a text value or a file.
type Part struct {
	Name  string
	Value string
	File  *FilePart
}

// Form is the encoded representation of a record, kept in insertion order.
// Setting a name twice replaces the earlier value in place.
type Form struct {
	parts    []Part
	index    map[string]int
	flexible []string
}

func NewForm() *Form {
	return &Form{index: map[string]int{}}
}

func boolString(v bool) string {
	if v {
		return "1"
	}
	return "0"
}

// FormatIDs renders a relation id list the way the panel expects it in
// full-replacement relation fields: "[1, 2]".
func FormatIDs(ids []int) string {
	parts := make([]string, len(ids))
	for i, id := range ids {
		parts[i] = strconv.Itoa(id)
	}
	return "[" + strings.Join(parts, ", ") + "]"
}

func (f *Form) put(p Part) {
	if f.index == nil {
		f.index = map[string]int{}
	}
	if i, ok := f.index[p.Name]; ok {
		f.parts[i] = p
		return
	}
	f.index[p.Name] = len(f.parts)
	f.parts = append(f.parts, p)
}

func (f *Form) Set(name, value string) *Form {
	f.put(Part{Name: name, Value: value})
	return f
}

// SetPtr sets a nullable string, nil is sent as an empty value.
func (f *Form) SetPtr(name string, value *string) *Form {
	if value == nil {
		return f.Set(name, "")
	}
	return f.Set(name, *value)
}

func (f *Form) SetBool(name string, v bool) *Form {
	return f.Set(name, boolString(v))
}

func (f *Form) SetInt(name string, v int) *Form {
	return f.Set(name, strconv.Itoa(v))
}

// SetIntPtr sets a nullable integer, nil is sent as an empty value.
func (f *Form) SetIntPtr(name string, v *int) *Form {
	if v == nil {
		return f.Set(name, "")
	}
	return f.SetInt(name, *v)
}

// SetOption nests an option group attribute: options[name].
func (f *Form) SetOption(name, value string) *Form {
	return f.Set("options["+name+"]", value)
}

// SetRelation sends the full list of related ids.
func (f *Form) SetRelation(name string, ids []int) *Form {
	return f.Set(name, FormatIDs(ids))
}

// SetBelongsTo sets a belongs-to field and its trashed marker. A zero id
// is sent as an empty value.
func (f *Form) SetBelongsTo(name string, id int, trashed bool) *Form {
	if id == 0 {
		f.Set(name, "")
	} else {
		f.SetInt(name, id)
	}
	return f.Set(name+"_trashed", strconv.FormatBool(trashed))
}

func (f *Form) SetFile(name string, file FilePart) *Form {
	f.put(Part{Name: name, File: &file})
	return f
}

// SetImage encodes one media slot. References are sent by identity,
// pending uploads as a file part, and nil images are omitted.
func (f *Form) SetImage(field string, index int, img *Image) error {
	if img == nil {
		return nil
	}
	name := fmt.Sprintf("__media__[%s][%d]", field, index)
	switch {
	case img.IsReference():
		f.SetInt(name, img.ID)
	case len(img.Data) == 0:
		return &ValidationError{
			Resource: field,
			Reason:   "image has neither an identity nor prepared bytes",
		}
	default:
		f.SetFile(name, FilePart{
			FileName: img.FileName,
			MimeType: img.MimeType,
			Data:     img.Data,
		})
	}
	if img.Alt != "" {
		f.Set(fmt.Sprintf("__media-custom-properties__[%s][%d][alt]", field, index), img.Alt)
	}
	return nil
}

func (f *Form) SetImages(field string, images []Image) error {
	for i := range images {
		if err := f.SetImage(field, i, &images[i]); err != nil {
			return err
		}
	}
	return nil
}

// SetFlexible encodes a flexible content field. Blocks without a key are
// given a fresh one suffixed with their layout.
func (f *Form) SetFlexible(field string, blocks []Block) error {
	for i := range blocks {
		if blocks[i].Key == "" {
			blocks[i].Key = NewBlockKey(blocks[i].Layout)
		}
	}
	if blocks == nil {
		blocks = []Block{}
	}
	encoded, err := json.Marshal(blocks)
	if err != nil {
		return err
	}
	f.Set(field, string(encoded))

	registered := false
	for _, name := range f.flexible {
		if name == field {
			registered = true
		}
	}
	if !registered {
		f.flexible = append(f.flexible, field)
	}
	names, err := json.Marshal(f.flexible)
	if err != nil {
		return err
	}
	f.Set(flexibleFieldsKey, string(names))
	return nil
}

// MarkCreate adds the markers of a create submission.
func (f *Form) MarkCreate(now time.Time) *Form {
	f.Set("viaResource", "")
	f.Set("viaResourceId", "")
	f.Set("viaRelationship", "")
	return f.Set("_retrieved_at", strconv.FormatInt(now.Unix(), 10))
}

// MarkUpdate adds the method override and the concurrency token of an
// update submission.
func (f *Form) MarkUpdate(now time.Time) *Form {
	f.Set("_method", "PUT")
	return f.Set("_retrieved_at", strconv.FormatInt(now.Unix(), 10))
}

func (f *Form) Get(name string) (string, bool) {
	i, ok := f.index[name]
	if !ok {
		return "", false
	}
	return f.parts[i].Value, true
}

func (f *Form) File(name string) (*FilePart, bool) {
	i, ok := f.index[name]
	if !ok || f.parts[i].File == nil {
		return nil, false
	}
	return f.parts[i].File, true
}

func (f *Form) Parts() []Part {
	return f.parts
}

func (f *Form) Len() int {
	return len(f.parts)
}

var quoteEscaper = strings.NewReplacer("\\", "\\\\", `"`, "\\\"")

// Encode writes the form as multipart/form-data using the given boundary
// and returns the matching content type.
func (f *Form) Encode(w io.Writer, boundary string) (string, error) {
	mw := multipart.NewWriter(w)
	if err := mw.SetBoundary(boundary); err != nil {
		return "", err
	}
	for _, p := range f.parts {
		if p.File == nil {
			if err := mw.WriteField(p.Name, p.Value); err != nil {
				return "", err
			}
			continue
		}

		header := make(textproto.MIMEHeader)
		header.Set("Content-Disposition", fmt.Sprintf(
			`form-data; name="%s"; filename="%s"`,
			quoteEscaper.Replace(p.Name),
			quoteEscaper.Replace(p.File.FileName),
		))
		mime := p.File.MimeType
		if mime == "" {
			mime = "application/octet-stream"
		}
		header.Set("Content-Type", mime)
		pw, err := mw.CreatePart(header)
		if err != nil {
			return "", err
		}
		if _, err := pw.Write(p.File.Data); err != nil {
			return "", err
		}
	}
	if err := mw.Close(); err != nil {
		return "", err
	}
	return mw.FormDataContentType(), nil
}
