package reform

// Reduce is the pure left fold producing the final state from an initial
// state and an ordered action log. Replay order is creation order; no
// action may depend on a later one, so any prefix of the log reduces to a
// valid intermediate state. The input state is never mutated.
func Reduce(initial State, actions []Action) State {
	state := initial.clone()
	for _, action := range actions {
		state = apply(state, action)
	}
	return state
}

func apply(state State, action Action) State {
	p := action.Payload

	switch action.Type {
	case ActionEditLicence:
		mergeInto(state.Licence.Base, p.Data)

	case ActionEditPurpose:
		mergeEntity(state.Licence.Purposes, p.ID, p.Data)

	case ActionEditPoint:
		mergeEntity(state.Licence.Points, p.ID, p.Data)

	case ActionEditCondition:
		mergeEntity(state.Licence.Conditions, p.ID, p.Data)

	case ActionEditVersion:
		mergeEntity(state.Licence.Versions, p.ID, p.Data)

	case ActionEditParty:
		mergeEntity(state.Licence.Parties, p.ID, p.Data)

	case ActionEditAddress:
		mergeEntity(state.Licence.Addresses, p.ID, p.Data)

	case ActionSetStatus:
		state.Status = p.Status
		state.Notes = p.Notes

	case ActionAddData:
		state.ARData = append(state.ARData, DataItem{
			ID:      p.ID,
			Schema:  p.Schema,
			Content: map[string]any{},
		})

	case ActionEditData:
		for i := range state.ARData {
			if state.ARData[i].ID == p.ID {
				mergeInto(state.ARData[i].Content, p.Data)
				break
			}
		}

	case ActionDeleteData:
		items := state.ARData[:0]
		for _, item := range state.ARData {
			if item.ID != p.ID {
				items = append(items, item)
			}
		}
		state.ARData = items
	}

	state.LastEdit = &LastEdit{User: p.User, Timestamp: p.Timestamp}
	return state
}

func mergeInto(target, diff map[string]any) {
	for k, v := range diff {
		target[k] = v
	}
}

func mergeEntity(entities []Entity, id string, diff map[string]any) {
	for _, e := range entities {
		if eid, ok := e["id"].(string); ok && eid == id {
			mergeInto(e, diff)
			return
		}
	}
}
