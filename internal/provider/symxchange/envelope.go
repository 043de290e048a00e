// internal/provider/symxchange/envelope.go
package symxchange

import (
	"github.com/beevik/etree"
	"github.com/oklog/ulid/v2"
)

const (
	nsSoapEnv      = "http://schemas.xmlsoap.org/soap/envelope/"
	nsTransactions = "http://www.symxchange.generated.symitar.com/v1/transactions"
	nsInquiry      = "http://www.symxchange.generated.symitar.com/v1/inquiry"
	nsCommon       = "http://www.symxchange.generated.symitar.com/v1/common/dto/common"
	nsTransDTO     = "http://www.symxchange.generated.symitar.com/v1/transactions/dto"
)

// envelope is a SOAP 1.1 document wrapping a single SymXchange Request.
type envelope struct {
	doc     *etree.Document
	request *etree.Element
}

// newEnvelope creates soapenv:Envelope/soapenv:Body/<operation>/Request with
// the MessageId attribute set.
func newEnvelope(operation, messageID string) *envelope {
	doc := etree.NewDocument()
	doc.CreateProcInst("xml", `version="1.0" encoding="UTF-8"`)

	env := doc.CreateElement("soapenv:Envelope")
	env.CreateAttr("xmlns:soapenv", nsSoapEnv)
	env.CreateAttr("xmlns:tran", nsTransactions)
	env.CreateAttr("xmlns:inq", nsInquiry)
	env.CreateAttr("xmlns:com", nsCommon)
	env.CreateAttr("xmlns:dto", nsTransDTO)

	env.CreateElement("soapenv:Header")
	body := env.CreateElement("soapenv:Body")

	request := body.CreateElement(operation).CreateElement("Request")
	request.CreateAttr("MessageId", messageID)

	return &envelope{doc: doc, request: request}
}

// field appends <tag>text</tag> to parent. Text is escaped on write.
func field(parent *etree.Element, tag, text string) *etree.Element {
	el := parent.CreateElement(tag)
	el.SetText(text)
	return el
}

func (e *envelope) bytes() ([]byte, error) {
	e.doc.Indent(2)
	return e.doc.WriteToBytes()
}

// newMessageID returns "<prefix>-<ULID>". ULIDs from ulid.Make are
// monotonic within the process.
func newMessageID(prefix string) string {
	return prefix + "-" + ulid.Make().String()
}
