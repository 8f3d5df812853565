package holiday

const activityTitle = "Holiday Donations"

const activityDescription = `Holiday Bot rewards users who donate on holidays. You can check this
activity to see upcoming holidays Token Ibis randomly celebrate in the
near future (about %s every week on average). If you make a
donation on that day, then you will have a chance to win reward!

## Upcoming Holidays

| Date | Holiday |
|:-----|:--------|
%s

## Previous Holidays

| Date | Holiday | Donation |
|:-----|:--------|:---------|
%s

---

_Think Holiday Bot might be missing an important date? The full list
of days that Holiday Bot knows about is
[here](https://github.com/set-night/ibisbots/blob/main/internal/bots/holiday/holidays.yaml).
Holiday Bot is pretty dumb, so only holidays with a fixed annual date
are supported (e.g. Christmas and July 4th, but not Easter or Memorial
Day). If you have another __fixed date__ holiday in mind, then comment
below. Holiday Bot will consider updating the list... and may send a little
something extra your way._

`

const (
	upcomingRow = "|%s&nbsp;&nbsp;|[%s](%s)|"
	previousRow = "|%s&nbsp;&nbsp;|[%s](%s)&nbsp;&nbsp;|%s|"
)

const commentDescription = `Happy %s! In honor of this holiday, %s has earned a
reward from Holiday Bot. Take a look [here](%s)

`

const rewardDescription = `Thank you for making a [donation](%s) today.
%s

---

_You can read more about it [here](%s)._

`
