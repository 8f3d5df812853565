package platform

const personFields = `id username firstName name userType verified verifiedOriginal referral { id }`

const activityFields = `id title description active rewardMin rewardRange scratch created user { ` + personFields + ` }`

const rewardFields = `id amount description scratch created relatedActivity { id } target { ` + personFields + ` } user { ` + personFields + ` }`

const commentFields = `id description created likeCount parent { id } user { ` + personFields + ` }`

const donationFields = `id amount description created user { ` + personFields + ` } target { ` + personFields + ` }`

const pageInfo = `pageInfo { hasNextPage endCursor }`

const queryActivityList = `query ActivityList($user: ID, $active: Boolean, $orderBy: String, $createdBefore: String, $first: Int, $after: String) {
  activityList(user: $user, active: $active, orderBy: $orderBy, createdBefore: $createdBefore, first: $first, after: $after) {
    ` + pageInfo + `
    edges { node { ` + activityFields + ` } }
  }
}`

const mutationActivityCreate = `mutation ActivityCreate($input: ActivityCreateInput!) {
  activityCreate(input: $input) { activity { ` + activityFields + ` } }
}`

const mutationActivityUpdate = `mutation ActivityUpdate($input: ActivityUpdateInput!) {
  activityUpdate(input: $input) { activity { ` + activityFields + ` } }
}`

const queryRewardList = `query RewardList($user: ID, $relatedActivity: ID, $createdAfter: String, $orderBy: String, $first: Int, $after: String) {
  rewardList(user: $user, relatedActivity: $relatedActivity, createdAfter: $createdAfter, orderBy: $orderBy, first: $first, after: $after) {
    ` + pageInfo + `
    edges { node { ` + rewardFields + ` } }
  }
}`

const mutationRewardCreate = `mutation RewardCreate($input: RewardCreateInput!) {
  rewardCreate(input: $input) { reward { ` + rewardFields + ` } }
}`

const queryCommentList = `query CommentList($parent: ID, $user: ID, $orderBy: String, $first: Int, $after: String) {
  commentList(parent: $parent, user: $user, orderBy: $orderBy, first: $first, after: $after) {
    ` + pageInfo + `
    edges { node { ` + commentFields + ` } }
  }
}`

const mutationCommentCreate = `mutation CommentCreate($input: CommentCreateInput!) {
  commentCreate(input: $input) { comment { ` + commentFields + ` } }
}`

const queryDonationList = `query DonationList($user: ID, $createdAfter: String, $createdBefore: String, $first: Int, $after: String) {
  donationList(user: $user, createdAfter: $createdAfter, createdBefore: $createdBefore, first: $first, after: $after) {
    ` + pageInfo + `
    edges { node { ` + donationFields + ` } }
  }
}`

const queryPersonList = `query PersonList($verified: Boolean, $orderBy: String, $likeFor: ID, $mentionIn: ID, $first: Int, $after: String) {
  personList(verified: $verified, orderBy: $orderBy, likeFor: $likeFor, mentionIn: $mentionIn, first: $first, after: $after) {
    ` + pageInfo + `
    edges { node { ` + personFields + ` } }
  }
}`

const queryBotNode = `query BotNode($id: ID!) {
  bot(id: $id) { id name username activityCount }
}`
