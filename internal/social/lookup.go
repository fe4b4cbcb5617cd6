package social

// FindContact returns the contact with the given ID.
func FindContact(contacts []Contact, id string) (Contact, bool) {
	for _, c := range contacts {
		if c.ID == id {
			return c, true
		}
	}
	return Contact{}, false
}

// ContactIDs returns the IDs of contacts in order.
func ContactIDs(contacts []Contact) []string {
	ids := make([]string, 0, len(contacts))
	for _, c := range contacts {
		ids = append(ids, c.ID)
	}
	return ids
}

// SelectContacts returns the contacts whose IDs appear in ids, keeping the
// order of contacts. Unknown IDs are ignored.
func SelectContacts(contacts []Contact, ids []string) []Contact {
	want := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		want[id] = struct{}{}
	}
	out := make([]Contact, 0, len(ids))
	for _, c := range contacts {
		if _, ok := want[c.ID]; ok {
			out = append(out, c)
		}
	}
	return out
}

// FilterUpdates drops updates whose contact is not in contacts.
func FilterUpdates(updates []Update, contacts []Contact) []Update {
	known := make(map[string]struct{}, len(contacts))
	for _, c := range contacts {
		known[c.ID] = struct{}{}
	}
	out := make([]Update, 0, len(updates))
	for _, u := range updates {
		if _, ok := known[u.ContactID]; ok {
			out = append(out, u)
		}
	}
	return out
}

// FindUpdate returns the update with the given ID.
func FindUpdate(updates []Update, id string) (Update, bool) {
	for _, u := range updates {
		if u.ID == id {
			return u, true
		}
	}
	return Update{}, false
}

// CircleGroup is one section of the directory view.
type CircleGroup struct {
	Circle   Circle
	Contacts []Contact
}

// GroupByCircle partitions contacts by circle. Groups appear in the order
// their circle is first encountered and contacts keep their relative order.
func GroupByCircle(contacts []Contact) []CircleGroup {
	var groups []CircleGroup
	index := make(map[Circle]int)
	for _, c := range contacts {
		i, ok := index[c.Circle]
		if !ok {
			i = len(groups)
			index[c.Circle] = i
			groups = append(groups, CircleGroup{Circle: c.Circle})
		}
		groups[i].Contacts = append(groups[i].Contacts, c)
	}
	return groups
}
