package profile

// HasGeneralChanges reports whether any general-settings field differs
// between the draft and the previously fetched profile. All five fields are
// primitives, so plain equality is enough; the caller uses this to skip the
// edit_general_settings call entirely when nothing changed.
func HasGeneralChanges(draft GeneralSettings, server ServerProfile) bool {
	return draft.Enabled != server.Enabled ||
		draft.DelayBeforeRepeating != server.DelayBeforeRepeating ||
		draft.RecoveryTime != server.RecoveryTime ||
		draft.AutomaticallyClose != server.AutomaticallyClose ||
		draft.SendAcknowledgment != server.SendAcknowledgment
}
