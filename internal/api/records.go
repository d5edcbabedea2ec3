package api

import (
	"bytes"
	"encoding/json"
	"strings"
)

// RecordKind is the category of entity searchable by mobile number.
type RecordKind string

const (
	RecordArchitect RecordKind = "architect"
	RecordSales     RecordKind = "sales"
)

// UserStatus selects one of the status-filtered user lists.
type UserStatus string

const (
	UserPending  UserStatus = "pending"
	UserApproved UserStatus = "approved"
	UserRejected UserStatus = "rejected"
)

// ReasonKind selects the reject or approve reason list.
type ReasonKind string

const (
	ReasonReject  ReasonKind = "reject"
	ReasonApprove ReasonKind = "approve"
)

// UserAction is a state-changing action on a pending user.
type UserAction string

const (
	ActionReview  UserAction = "review"
	ActionReject  UserAction = "reject"
	ActionApprove UserAction = "approve"
)

// LoginData is the payload of a successful login.
type LoginData struct {
	Token        string     `json:"token"`
	RefreshToken string     `json:"refreshToken,omitempty"`
	ExpiresIn    int64      `json:"expiresIn,omitempty"`
	User         *LoginUser `json:"user,omitempty"`
}

// LoginUser describes the account that logged in.
type LoginUser struct {
	ID    FlexString `json:"id"`
	Email string     `json:"email"`
	Name  string     `json:"name,omitempty"`
	Role  string     `json:"role,omitempty"`
}

// DashboardCountItem is one labeled counter on the dashboard.
type DashboardCountItem struct {
	ID    FlexString `json:"id"`
	Title string     `json:"title"`
	Count int64      `json:"count"`
	Icon  string     `json:"icon,omitempty"`
	Color string     `json:"color,omitempty"`
	Trend *float64   `json:"trend,omitempty"`

	Extra map[string]any `json:"-"`
}

func (d *DashboardCountItem) UnmarshalJSON(b []byte) error {
	type plain DashboardCountItem
	extra, err := decodeWithExtra(b, (*plain)(d))
	d.Extra = extra
	return err
}

func (d DashboardCountItem) MarshalJSON() ([]byte, error) {
	type plain DashboardCountItem
	return encodeWithExtra(plain(d), d.Extra)
}

// Dashboard is the dashboard count list plus its display title.
type Dashboard struct {
	Title string               `json:"title"`
	Items []DashboardCountItem `json:"items"`
}

// RecordPage is a list payload with optional paging metadata.
type RecordPage[T any] struct {
	Data  []T  `json:"data"`
	Total *int `json:"total,omitempty"`
	Page  *int `json:"page,omitempty"`
	Limit *int `json:"limit,omitempty"`
}

// listKeys are the field names backends use for the rows of a list payload.
var listKeys = []string{"data", "userList", "users"}

// UnmarshalJSON accepts a bare array or an object carrying the rows under
// one of listKeys together with optional paging fields.
func (p *RecordPage[T]) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) > 0 && b[0] == '[' {
		*p = RecordPage[T]{}
		return json.Unmarshal(b, &p.Data)
	}

	var fields map[string]json.RawMessage
	if err := json.Unmarshal(b, &fields); err != nil {
		return err
	}

	page := RecordPage[T]{}
	for _, key := range listKeys {
		raw, ok := fields[key]
		if !ok || bytes.Equal(bytes.TrimSpace(raw), []byte("null")) {
			continue
		}
		if err := json.Unmarshal(raw, &page.Data); err != nil {
			return err
		}
		break
	}
	for key, dst := range map[string]**int{"total": &page.Total, "page": &page.Page, "limit": &page.Limit} {
		raw, ok := fields[key]
		if !ok {
			continue
		}
		var n *int
		if err := json.Unmarshal(raw, &n); err != nil {
			return err
		}
		*dst = n
	}
	if page.Data == nil {
		page.Data = []T{}
	}
	*p = page
	return nil
}

// UserRecord is a row of the pending/approved/rejected lists and the
// payload of a single user lookup.
type UserRecord struct {
	ID        FlexString `json:"id"`
	FirstName string     `json:"firstName,omitempty"`
	LastName  string     `json:"lastName,omitempty"`
	Email     string     `json:"email,omitempty"`
	Phone     FlexString `json:"phone,omitempty"`
	Mobile    FlexString `json:"mobile,omitempty"`
	Role      string     `json:"role,omitempty"`
	Status    string     `json:"status,omitempty"`
	CreatedAt string     `json:"createdAt,omitempty"`
	UpdatedAt string     `json:"updatedAt,omitempty"`

	Extra map[string]any `json:"-"`
}

func (u *UserRecord) UnmarshalJSON(b []byte) error {
	type plain UserRecord
	extra, err := decodeWithExtra(b, (*plain)(u))
	u.Extra = extra
	return err
}

func (u UserRecord) MarshalJSON() ([]byte, error) {
	type plain UserRecord
	return encodeWithExtra(plain(u), u.Extra)
}

// FullName joins first and last name.
func (u UserRecord) FullName() string {
	return strings.TrimSpace(u.FirstName + " " + u.LastName)
}

// ArchitectRecord is the editable architect profile.
type ArchitectRecord struct {
	ArchitectID           FlexString `json:"architectId"`
	FirstName             string     `json:"firstName"`
	LastName              string     `json:"lastName"`
	FirmName              string     `json:"firmName"`
	Gender                string     `json:"gender"`
	ContactNumber         FlexString `json:"contactNumber"`
	Email                 string     `json:"email"`
	Address1              string     `json:"address1"`
	Address2              string     `json:"address2,omitempty"`
	Landmark              string     `json:"landmark,omitempty"`
	City                  string     `json:"city"`
	State                 string     `json:"state"`
	Region                string     `json:"region,omitempty"`
	Pincode               FlexString `json:"pincode"`
	SpocName              string     `json:"spocName,omitempty"`
	SpocMobile            FlexString `json:"spocMobile,omitempty"`
	SpocManagerName       string     `json:"spocManagerName,omitempty"`
	SpocManagerMobile     FlexString `json:"spocManagerMobile,omitempty"`
	RegionalManagerMobile FlexString `json:"regionalManagerMobile,omitempty"`

	Extra map[string]any `json:"-"`
}

func (a *ArchitectRecord) UnmarshalJSON(b []byte) error {
	type plain ArchitectRecord
	extra, err := decodeWithExtra(b, (*plain)(a))
	a.Extra = extra
	return err
}

func (a ArchitectRecord) MarshalJSON() ([]byte, error) {
	type plain ArchitectRecord
	return encodeWithExtra(plain(a), a.Extra)
}

// architectUpdate is the body of /approval/updateArchitect. The backend
// expects the contact number under "mobile" and every field as a string.
type architectUpdate struct {
	ArchitectID           string `json:"architectId"`
	FirstName             string `json:"firstName"`
	LastName              string `json:"lastName"`
	FirmName              string `json:"firmName"`
	Gender                string `json:"gender"`
	Mobile                string `json:"mobile"`
	Email                 string `json:"email"`
	Address1              string `json:"address1"`
	Address2              string `json:"address2"`
	Landmark              string `json:"landmark"`
	City                  string `json:"city"`
	State                 string `json:"state"`
	Region                string `json:"region"`
	Pincode               string `json:"pincode"`
	SpocName              string `json:"spocName"`
	SpocMobile            string `json:"spocMobile"`
	SpocManagerName       string `json:"spocManagerName"`
	SpocManagerMobile     string `json:"spocManagerMobile"`
	RegionalManagerMobile string `json:"regionalManagerMobile"`
}

func (a ArchitectRecord) updatePayload() architectUpdate {
	return architectUpdate{
		ArchitectID:           a.ArchitectID.String(),
		FirstName:             a.FirstName,
		LastName:              a.LastName,
		FirmName:              a.FirmName,
		Gender:                a.Gender,
		Mobile:                a.ContactNumber.String(),
		Email:                 a.Email,
		Address1:              a.Address1,
		Address2:              a.Address2,
		Landmark:              a.Landmark,
		City:                  a.City,
		State:                 a.State,
		Region:                a.Region,
		Pincode:               a.Pincode.String(),
		SpocName:              a.SpocName,
		SpocMobile:            a.SpocMobile.String(),
		SpocManagerName:       a.SpocManagerName,
		SpocManagerMobile:     a.SpocManagerMobile.String(),
		RegionalManagerMobile: a.RegionalManagerMobile.String(),
	}
}

// SalesRecord is the sales contact found by mobile search.
type SalesRecord struct {
	Name          string     `json:"name"`
	ContactNumber FlexString `json:"contactNumber"`

	Extra map[string]any `json:"-"`
}

func (s *SalesRecord) UnmarshalJSON(b []byte) error {
	type plain SalesRecord
	extra, err := decodeWithExtra(b, (*plain)(s))
	s.Extra = extra
	return err
}

func (s SalesRecord) MarshalJSON() ([]byte, error) {
	type plain SalesRecord
	return encodeWithExtra(plain(s), s.Extra)
}

// Reason is one entry of the reject or approve reason lists.
type Reason struct {
	ID        FlexString `json:"id"`
	Reason    string     `json:"reason"`
	Category  string     `json:"category,omitempty"`
	IsActive  *bool      `json:"isActive,omitempty"`
	CreatedAt string     `json:"createdAt,omitempty"`

	Extra map[string]any `json:"-"`
}

func (r *Reason) UnmarshalJSON(b []byte) error {
	type plain Reason
	extra, err := decodeWithExtra(b, (*plain)(r))
	r.Extra = extra
	return err
}

func (r Reason) MarshalJSON() ([]byte, error) {
	type plain Reason
	return encodeWithExtra(plain(r), r.Extra)
}

// Match is the result of a mobile number search. Found=false is the
// explicit not-found signal; exactly one of Architect or Sales is set otherwise.
type Match struct {
	Kind      RecordKind       `json:"kind"`
	Found     bool             `json:"found"`
	Architect *ArchitectRecord `json:"architect,omitempty"`
	Sales     *SalesRecord     `json:"sales,omitempty"`
}
