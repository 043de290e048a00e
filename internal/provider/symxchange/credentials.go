// internal/provider/symxchange/credentials.go
package symxchange

import "github.com/beevik/etree"

const (
	homeBankingDeviceType   = "HOMEBANKING"
	homeBankingDeviceNumber = "1"
)

// Credentials is one of AdministrativeCredentials or HomeBankingCredentials.
// The set is closed: render is unexported.
type Credentials interface {
	Kind() string
	render(request *etree.Element)
}

// AdministrativeCredentials authenticate the bridge's own service account.
// All values come from configuration.
type AdministrativeCredentials struct {
	Password     string
	DeviceType   string
	DeviceNumber string
}

func (AdministrativeCredentials) Kind() string { return "administrative" }

func (c AdministrativeCredentials) render(request *etree.Element) {
	creds := request.CreateElement("Credentials")
	admin := creds.CreateElement("AdministrativeCredentials")
	field(admin, "Password", c.Password)
	deviceInformation(request, c.DeviceType, c.DeviceNumber)
}

// HomeBankingCredentials post a call under a member's own online banking
// identity.
type HomeBankingCredentials struct {
	UserID   string
	Password string
}

func (HomeBankingCredentials) Kind() string { return "home_banking" }

func (c HomeBankingCredentials) render(request *etree.Element) {
	creds := request.CreateElement("Credentials")
	hb := creds.CreateElement("HomeBankingCredentials")
	field(hb, "UserId", c.UserID)
	field(hb, "Password", c.Password)
	deviceInformation(request, homeBankingDeviceType, homeBankingDeviceNumber)
}

func deviceInformation(request *etree.Element, deviceType, deviceNumber string) {
	device := request.CreateElement("DeviceInformation")
	device.CreateAttr("DeviceType", deviceType)
	device.CreateAttr("DeviceNumber", deviceNumber)
}
