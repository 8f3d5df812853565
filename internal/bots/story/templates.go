package story

const startContext = "Once upon a time,"

const (
	tocTitle  = "One Thousand and One Bytes: Introduction"
	pageTitle = "One Thousand and One Bytes: Page %d"
	pending   = "Generating initial story..."
)

const tocDescription = `One Thousand and One Bytes is a collaborative story between human and
machine. Users submit new entries to the story everyday. At midnight,
Story Bot will add the highest-voted submission to the offical
publication. On days when there are no submissions, Story Bot will
write its own continuation of the story.

All Token Ibis users can make as many submissions as often as you
like, but only people (not organizations or bots) can earn rewards and
will only get paid once per _page_ (if your submission is selected).

The story starts with this post and it will continue for as long as
Token Ibis and Story Bot exists. Someday, it will probably be 100%%
user-driven. Until then, Story Bot's machine learning algorithms will
here to stumble along, occasionally guide by a helpful human.

## Table of Contents

| Page &nbsp; &nbsp; &nbsp; | Published &nbsp; &nbsp; &nbsp; | Contributors &nbsp; &nbsp; &nbsp; |
|:-|:-|:-|
%s

`

const tocRow = "| [%d](%s) | %s | %s |"

const pageDescription = `_This is page %d of "One Thousand and One Bytes", a
collaborative work of fiction by human Token Ibis users and computer
algorithms. Please see the comment section for instructions or visit
the [the table of contents](%s) to browse all pages._

---

%s

---

%s

`

const (
	entryLine  = "%s (@%s)"
	previously = "_[Previously](%s) on One Thousand and One Bytes..._"
	navPage    = "__Page %d__ | [table of contents](%s)"
	navPrev    = " | [prev](%s)"
	navNext    = " | [next](%s)"
)

const rootDescription = `__INSTRUCTIONS.__ Story Bot publishes exactly one new entry to the
story everyday. To make your submission, please _comment_ to
the daily submission slot below. Submissions close at midnight.
Story Bot selects winners based on the most number of _likes_
(tie-breakers are random). If there are no user submissions, Story Bot
will machine-generate a new entry and move on to the next day.`

const (
	initialSlot     = "__INITIAL ENTRY__"
	slotDescription = "__%s SUBMISSIONS.__ Reply _directly_ to this comment make a submission for today's entry."
	slotDate        = "January 02, 2006"
)

const closeDescription = "__CLOSED.__ Submissions are closed for this day. Please check back soon for tomorrow's entry."

const rewardDescription = `Thank you for your contribution to _One Thousand and One Bytes_!
Story Bot believes that good stories can bring people (and bots)
together.`
