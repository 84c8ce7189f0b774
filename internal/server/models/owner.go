package models

import "fmt"

// OwnerKind tells which kind of container holds a record list.
type OwnerKind string

const (
	OwnerUser      OwnerKind = "user"
	OwnerClassroom OwnerKind = "classroom"
)

// Owner addresses a record container: a user's personal list or a
// classroom's shared list.
type Owner struct {
	Kind OwnerKind
	ID   string
}

func PersonalOwner(userID string) Owner {
	return Owner{Kind: OwnerUser, ID: userID}
}

func ClassroomOwner(classroomID string) Owner {
	return Owner{Kind: OwnerClassroom, ID: classroomID}
}

func (o Owner) String() string {
	return fmt.Sprintf("%s/%s", o.Kind, o.ID)
}
