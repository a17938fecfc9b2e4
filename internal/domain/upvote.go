package domain

// User is an account that can upvote articles.
type User struct {
	ID             int64
	Username       string
	HashedPassword string
}

// UpvoteAction reports what a toggle did.
type UpvoteAction string

const (
	UpvoteAdded   UpvoteAction = "added"
	UpvoteRemoved UpvoteAction = "removed"
)

// Message renders the action the way the news API reports it.
func (a UpvoteAction) Message() string {
	if a == UpvoteAdded {
		return "Article upvoted"
	}
	return "Upvote removed"
}

// UpvoteDetails is the vote count of an article and whether a given user voted for it.
type UpvoteDetails struct {
	Count       int
	VotedByUser bool
}
