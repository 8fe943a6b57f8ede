package workflow

import (
	"fmt"
	"strconv"
	"strings"
)

// StaffList — список пользователей, которым разрешены действия с заказами.
type StaffList struct {
	ids map[int64]struct{}
}

// NewStaffList строит список из идентификаторов чата.
func NewStaffList(ids ...int64) StaffList {
	set := make(map[int64]struct{}, len(ids))
	for _, id := range ids {
		set[id] = struct{}{}
	}
	return StaffList{ids: set}
}

// ParseStaffList разбирает строку вида "123, 456".
func ParseStaffList(raw string) (StaffList, error) {
	var ids []int64
	for _, part := range strings.Split(raw, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		id, err := strconv.ParseInt(part, 10, 64)
		if err != nil {
			return StaffList{}, fmt.Errorf("parse staff id %q: %w", part, err)
		}
		ids = append(ids, id)
	}
	return NewStaffList(ids...), nil
}

// Allowed сообщает, входит ли пользователь в список.
func (s StaffList) Allowed(id int64) bool {
	_, ok := s.ids[id]
	return ok
}

// Len возвращает размер списка.
func (s StaffList) Len() int {
	return len(s.ids)
}
