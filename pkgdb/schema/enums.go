package schema

import (
	"fmt"
	"strings"
)

// Status is a status code id. All families share one id space, the values
// match the historical pkgdb statuscode table.
type Status int

const (
	Active              Status = 1
	Approved            Status = 3
	AwaitingBranch      Status = 4
	AwaitingDevelopment Status = 5
	AwaitingQA          Status = 6
	AwaitingPublish     Status = 7
	AwaitingReview      Status = 8
	EOL                 Status = 9
	Denied              Status = 10
	Obsolete            Status = 13
	UnderDevelopment    Status = 18
)

// DefaultLanguage is the locale every status code has a translation for.
const DefaultLanguage = "C"

type statusInfo struct {
	key         string
	name        string
	description string
}

var statusInfos = map[Status]statusInfo{
	Active:              {"active", "Active", "Currently maintained and accepting updates"},
	Approved:            {"approved", "Approved", "Request has been approved"},
	AwaitingBranch:      {"awaitingbranch", "Awaiting Branch", "Approved, waiting for the branch to be created"},
	AwaitingDevelopment: {"awaitingdevel", "Awaiting Development", "Waiting for development to start"},
	AwaitingQA:          {"awaitingqa", "Awaiting QA", "Waiting for quality assurance"},
	AwaitingPublish:     {"awaitingpublish", "Awaiting Publish", "Waiting to be published"},
	AwaitingReview:      {"awaitingreview", "Awaiting Review", "Waiting for a reviewer"},
	EOL:                 {"eol", "EOL", "End of life, no longer maintained"},
	Denied:              {"denied", "Denied", "Request was denied"},
	Obsolete:            {"obsolete", "Obsolete", "Superseded or withdrawn"},
	UnderDevelopment:    {"underdevelopment", "Under Development", "Not yet released"},
}

func (s Status) String() string {
	if info, ok := statusInfos[s]; ok {
		return info.key
	}
	return fmt.Sprintf("status(%d)", int(s))
}

// CanonicalName is the name stored for the default language.
func (s Status) CanonicalName() string {
	return statusInfos[s].name
}

func (s Status) CanonicalDescription() string {
	return statusInfos[s].description
}

// AllStatuses returns every known status code in id order.
func AllStatuses() []Status {
	return []Status{
		Active, Approved, AwaitingBranch, AwaitingDevelopment, AwaitingQA, AwaitingPublish,
		AwaitingReview, EOL, Denied, Obsolete, UnderDevelopment,
	}
}

// ParseStatus accepts the short key ("awaitingreview"), the canonical name
// ("Awaiting Review") or the numeric id.
func ParseStatus(value string) (Status, error) {
	normalized := strings.ToLower(strings.ReplaceAll(strings.TrimSpace(value), " ", ""))
	for status, info := range statusInfos {
		if normalized == info.key || normalized == strings.ToLower(strings.ReplaceAll(info.name, " ", "")) {
			return status, nil
		}
		if normalized == fmt.Sprint(int(status)) {
			return status, nil
		}
	}
	return 0, fmt.Errorf("unknown status '%v': %w", value, ErrInvalidStatus)
}

type Family string

const (
	CollectionFamily     Family = "collection"
	PackageFamily        Family = "package"
	PackageListingFamily Family = "packagelisting"
	PackageVersionFamily Family = "packageversion"
	AclFamily            Family = "acl"
)

type stateMachine struct {
	statuses []Status
	initial  []Status
	edges    map[Status][]Status
}

var families = map[Family]stateMachine{
	CollectionFamily: {
		statuses: []Status{UnderDevelopment, Active, EOL},
		initial:  []Status{UnderDevelopment, Active},
		edges: map[Status][]Status{
			UnderDevelopment: {Active},
			Active:           {EOL},
		},
	},
	PackageFamily: {
		statuses: []Status{AwaitingReview, Approved, Denied},
		initial:  []Status{AwaitingReview},
		edges: map[Status][]Status{
			AwaitingReview: {Approved, Denied},
		},
	},
	PackageListingFamily: {
		statuses: []Status{AwaitingReview, AwaitingBranch, Approved, Denied},
		initial:  []Status{AwaitingReview},
		edges: map[Status][]Status{
			AwaitingReview: {AwaitingBranch},
			AwaitingBranch: {Approved, Denied},
		},
	},
	PackageVersionFamily: {
		statuses: []Status{AwaitingDevelopment, AwaitingReview, AwaitingQA, AwaitingPublish, Approved, Denied, Obsolete},
		initial:  []Status{AwaitingDevelopment},
		edges: map[Status][]Status{
			AwaitingDevelopment: {AwaitingReview},
			AwaitingReview:      {AwaitingQA},
			AwaitingQA:          {AwaitingPublish},
			AwaitingPublish:     {Approved, Denied, Obsolete},
			Approved:            {Obsolete},
		},
	},
	AclFamily: {
		statuses: []Status{AwaitingReview, Approved, Denied, Obsolete},
		initial:  []Status{AwaitingReview, Approved},
		edges: map[Status][]Status{
			AwaitingReview: {Approved, Denied},
			Approved:       {Obsolete},
		},
	},
}

func Families() []Family {
	return []Family{CollectionFamily, PackageFamily, PackageListingFamily, PackageVersionFamily, AclFamily}
}

func machine(family Family) (stateMachine, error) {
	m, ok := families[family]
	if !ok {
		return stateMachine{}, fmt.Errorf("unknown status family '%v'", family)
	}
	return m, nil
}

// FamilyStatuses returns the ordered set of status codes valid for the family.
func FamilyStatuses(family Family) ([]Status, error) {
	m, err := machine(family)
	if err != nil {
		return nil, err
	}
	return append([]Status(nil), m.statuses...), nil
}

func contains(statuses []Status, s Status) bool {
	for _, candidate := range statuses {
		if candidate == s {
			return true
		}
	}
	return false
}

func CheckValidStatus(family Family, status Status) error {
	m, err := machine(family)
	if err != nil {
		return err
	}
	if !contains(m.statuses, status) {
		return fmt.Errorf("status %v is not valid for %v: %w", status, family, ErrInvalidStatus)
	}
	return nil
}

// CheckInitialStatus verifies that a new entity of the family may start in status.
func CheckInitialStatus(family Family, status Status) error {
	if err := CheckValidStatus(family, status); err != nil {
		return err
	}
	if !contains(families[family].initial, status) {
		return fmt.Errorf("%v cannot be created with status %v: %w", family, status, ErrInvalidTransition)
	}
	return nil
}

func CheckTransition(family Family, from, to Status) error {
	if err := CheckValidStatus(family, to); err != nil {
		return err
	}
	if !contains(families[family].edges[from], to) {
		return fmt.Errorf("%v cannot move from %v to %v: %w", family, from, to, ErrInvalidTransition)
	}
	return nil
}

// IsTerminal reports whether no transition leaves status.
func IsTerminal(family Family, status Status) bool {
	return len(families[family].edges[status]) == 0
}

type Role string

const (
	Watcher Role = "watcher"
	Owner   Role = "owner"
)

var roleRanks = map[Role]int{Watcher: 1, Owner: 2}

func CheckValidRole(role Role) error {
	if _, ok := roleRanks[role]; !ok {
		return fmt.Errorf("invalid role '%v', must be 'watcher' or 'owner': %w", role, ErrInvalidRequest)
	}
	return nil
}

// Covers reports whether a grant of role r satisfies a requirement of required.
func (r Role) Covers(required Role) bool {
	have, ok := roleRanks[r]
	if !ok {
		return false
	}
	return have >= roleRanks[required]
}

type SubjectKind string

const (
	PersonSubject SubjectKind = "person"
	GroupSubject  SubjectKind = "group"
)

func CheckValidSubjectKind(kind SubjectKind) error {
	if kind == PersonSubject || kind == GroupSubject {
		return nil
	}
	return fmt.Errorf("invalid subject kind '%v', must be 'person' or 'group': %w", kind, ErrInvalidRequest)
}

type LogKind string

const (
	CollectionLogKind     LogKind = "collection"
	PackageLogKind        LogKind = "package"
	PackageListingLogKind LogKind = "packagelisting"
	PackageVersionLogKind LogKind = "packageversion"
	PersonAclLogKind      LogKind = "personpackagelistingacl"
	GroupAclLogKind       LogKind = "grouppackagelistingacl"
)

func LogKinds() []LogKind {
	return []LogKind{
		CollectionLogKind, PackageLogKind, PackageListingLogKind,
		PackageVersionLogKind, PersonAclLogKind, GroupAclLogKind,
	}
}

type LogAction string

const (
	Added         LogAction = "added"
	Removed       LogAction = "removed"
	StatusChanged LogAction = "statuschanged"
)

var logActions = map[LogKind][]LogAction{
	CollectionLogKind:     {Added, StatusChanged},
	PackageLogKind:        {Added, StatusChanged},
	PackageListingLogKind: {Added, Removed, StatusChanged},
	PackageVersionLogKind: {Added, StatusChanged},
	PersonAclLogKind:      {Added, Removed, StatusChanged},
	GroupAclLogKind:       {Added, Removed, StatusChanged},
}

var logFamilies = map[LogKind]Family{
	CollectionLogKind:     CollectionFamily,
	PackageLogKind:        PackageFamily,
	PackageListingLogKind: PackageListingFamily,
	PackageVersionLogKind: PackageVersionFamily,
	PersonAclLogKind:      AclFamily,
	GroupAclLogKind:       AclFamily,
}

func CheckValidLogKind(kind LogKind) error {
	if _, ok := logActions[kind]; !ok {
		return fmt.Errorf("unknown log kind '%v': %w", kind, ErrInvalidLogAction)
	}
	return nil
}

func CheckValidLogAction(kind LogKind, action LogAction) error {
	if err := CheckValidLogKind(kind); err != nil {
		return err
	}
	for _, a := range logActions[kind] {
		if a == action {
			return nil
		}
	}
	return fmt.Errorf("action '%v' is not allowed for %v logs: %w", action, kind, ErrInvalidLogAction)
}

// StatusFamily returns the status family whose codes a log kind records.
func (k LogKind) StatusFamily() Family {
	return logFamilies[k]
}

func AclLogKind(kind SubjectKind) LogKind {
	if kind == GroupSubject {
		return GroupAclLogKind
	}
	return PersonAclLogKind
}
