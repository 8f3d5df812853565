package shoutout

const activityTitle = "%s Shoutouts"

const activityDescription = `
Witnessed a random act of kindness? Want to spotlight your bff's
latest feat of awesomeness? Tell the world about it here!

Just reply _directly_ to this activity and mention the recipient
using Token Ibis's mention feature, something like:

> Hey @%s, great job shouting people out.

%s will send the recipient %s as a reward until funds run
out.

### Rules

* You can make one shoutout per month
* Shoutouts are for humans only
* Funds aren't infinite, so the earlier the better
`

const rewardDescription = "Hey %s, Here's a fresh shoutout from %s:\n\n%s"

const replyDescription = "Thanks, here is a little [something](%s) for %s."
