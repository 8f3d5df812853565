package lastword

const activityTitle = "The Last Word: Round %d"

const activityDescription = `Welcome to the latest edition of _The Last Word_. The game is
simple: reply to this activity (or any comment in this activity) as
many times as you would like. Whoever (humans only) submits the _last_
reply wins the pot of money if nobody responds within %d
days. The more people participate and the longer it goes on, the
bigger the pot gets!

### The First Word

Here is something to get the discussion started:

> "%s"

_—%s_

### The Last Word

> "%s"

_—%s_

### Stats

* number of participants: %d
* reward amount: %s
* countdown to: %s
`

const (
	placeholderLeader = "Your Name Here"
	placeholderWords  = "I wonder what I would do with %s?"
)

const rewardDescription = "Truly one for the ages:\n\n> \"%s\" \n\n_—%s_"

const closing = "%s\n\n—\n\nCongratulations, @%s. Here is your well-earned [reward](%s)!"

const timeFormat = "January 02, 2006 at 03:04 PM"
