package vectorstore

// SharedCollectionName returns the name of a project's shared collection,
// visible to all users of the project.
func SharedCollectionName(projectID string) string {
	return projectID + "_shared"
}

// UserCollectionName returns the name of a user's private collection
// within a project.
func UserCollectionName(projectID, userID string) string {
	return projectID + "_" + userID
}
