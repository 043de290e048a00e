// internal/provider/symxchange/parser.go
package symxchange

import (
	"fmt"
	"strconv"
	"strings"

	"core-banking-service/internal/domain"

	"github.com/beevik/etree"
)

const (
	attrStatusCode   = "StatusCode"
	attrConfirmation = "Confirmation"
	attrMessageID    = "MessageId"
	tagFaultString   = "faultstring"
)

// ParseResponse turns a SymXchange SOAP response into a domain.Result.
//
// A faultstring anywhere in the document wins over any StatusCode. Otherwise
// the first StatusCode attribute decides: 0 is success, anything else (or no
// status at all, reported as -1) is a failure. The raw body is kept in
// Data[rawResponse].
func ParseResponse(body []byte) *domain.Result {
	raw := string(body)

	doc := etree.NewDocument()
	if err := doc.ReadFromBytes(body); err != nil || doc.Root() == nil {
		res := domain.Failure(domain.StatusUnknown, errorCodeMessage(domain.StatusUnknown))
		res.Data = map[string]interface{}{domain.DataKeyRawResponse: raw}
		return res
	}

	elements := collect(doc.Root(), nil)

	if fault := findTag(elements, tagFaultString); fault != nil {
		message := strings.TrimSpace(fault.Text())
		if message == "" {
			message = "SOAP fault"
		}
		res := domain.Failure(domain.StatusUnknown, message)
		res.Data = map[string]interface{}{domain.DataKeyRawResponse: raw}
		return res
	}

	statusCode := domain.StatusUnknown
	if v, ok := findAttr(elements, attrStatusCode); ok {
		if n, err := strconv.Atoi(strings.TrimSpace(v)); err == nil {
			statusCode = n
		}
	}

	res := &domain.Result{
		Success:    statusCode == 0,
		StatusCode: statusCode,
		Data:       map[string]interface{}{domain.DataKeyRawResponse: raw},
	}
	if res.Success {
		res.Message = "Success"
	} else {
		res.Message = errorCodeMessage(statusCode)
	}
	if v, ok := findAttr(elements, attrConfirmation); ok && v != "" {
		res.ConfirmationNumber = v
	}
	if v, ok := findAttr(elements, attrMessageID); ok {
		res.Data[domain.DataKeyMessageID] = v
	}

	return res
}

func errorCodeMessage(code int) string {
	return fmt.Sprintf("Error code: %d", code)
}

// collect returns e and all its descendants in document order.
func collect(e *etree.Element, out []*etree.Element) []*etree.Element {
	out = append(out, e)
	for _, child := range e.ChildElements() {
		out = collect(child, out)
	}
	return out
}

// findTag matches on the local name, whatever the namespace prefix.
func findTag(elements []*etree.Element, tag string) *etree.Element {
	for _, e := range elements {
		if e.Tag == tag {
			return e
		}
	}
	return nil
}

func findAttr(elements []*etree.Element, key string) (string, bool) {
	for _, e := range elements {
		if attr := e.SelectAttr(key); attr != nil {
			return attr.Value, true
		}
	}
	return "", false
}
