package referral

const activityTitle = "Refer Friends to Token Ibis"

const activityDescription = `If you recommend a friend to Token Ibis using your personal
[invite link](%s), Referral Bot will send _both_ you and your
friend some bonus money. Ground rules:

* Only people (not organizations) can make referrals
* Both you and your friend have to __verify your phone numbers__ to
  qualify.

## Reward Amounts

Referral Bot will send you a reward for any friends that you directly
refer (Level 1), a smaller reward for anyone that your friend refers
(Level 2), and so on. It's basically a pyramid scheme, except that
Token Ibis pays for it and it helps people. #notascam

Here are the current reward amounts:

__New Referred Users__: %s

__Referrers__: 

%s

## Past Referrals

Here is the latest referral tree:

%s

---

_If you're not on this list, you probably need to verify your phone number.
The Token Ibis referral system is also in testing right now, so please
email __info@tokenibis.org__ if you feel there was any error with your
referrals. Token Ibis is not doing retroactive referrals at this
time._

`

const (
	levelLine   = "* __Level %d__: %s"
	pyramidStep = "o &nbsp;&nbsp;&nbsp;&nbsp;"
)

const rewardReferred = `Hello %s, thanks for
letting @%s refer
you to Token Ibis!

`

const rewardDirect = `Hello %s thanks for
referring @%s to Token Ibis!

`

const rewardIndirect = `Hello %s,
congratulations! One of your referrals referred
[%s](%s) to Token Ibis!

`
