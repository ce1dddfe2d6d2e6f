package incident

// Merge overlays patch onto old and returns a new record. Fields present in
// the patch replace the old value; absent fields survive. CreatedAt is set
// once at creation and never overwritten. The store version token always
// comes from old, since that is the row the write is replacing.
//
// The same law is applied server-side (analysis outcome over the processing
// stub) and console-side (fetched record over the local view entry).
func Merge(old, patch *Record) *Record {
	if old == nil {
		return patch.Clone()
	}
	out := old.Clone()
	if patch == nil {
		return out
	}

	if patch.Status != "" {
		out.Status = patch.Status
	}
	if out.CreatedAt.IsZero() {
		out.CreatedAt = patch.CreatedAt
	}
	if patch.Transcript != "" {
		out.Transcript = patch.Transcript
	}
	if patch.EmergencyType != "" {
		out.EmergencyType = patch.EmergencyType
	}
	if patch.Confidence != nil {
		v := *patch.Confidence
		out.Confidence = &v
	}
	if patch.Location != nil {
		loc := *patch.Location
		out.Location = &loc
	}
	if patch.CallerPhone != "" {
		out.CallerPhone = patch.CallerPhone
	}
	if patch.Flags != nil {
		f := *patch.Flags
		out.Flags = &f
	}
	if patch.ConfirmedAt != nil {
		t := *patch.ConfirmedAt
		out.ConfirmedAt = &t
	}
	if patch.Notes != "" {
		out.Notes = patch.Notes
	}
	if patch.Error != "" {
		out.Error = patch.Error
	}

	out.Version = old.Version
	return out
}
