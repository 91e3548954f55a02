package state

const planTemplate = `# Trading Plan

## Current Objectives
- Evaluate market conditions each tick
- Look for news-driven opportunities
- Manage existing positions

## Recent Observations
(Bot will update this section)

## Next Actions
(Bot will update this section)
`

const strategyTemplate = `# Trading Strategy

## Approach
- Event-driven trading focused on news catalysts
- Monitor political developments (executive orders, policy changes, key tweets)
- Look for asymmetric risk/reward setups
- React quickly to market-moving news

## Current Market Context
- High volatility environment due to political uncertainty
- Policy changes can cause rapid sector rotations
- Social media (especially tweets from key figures) can move markets

## Position Management
- No fixed position count limit
- Size positions based on conviction and volatility
- Consider correlation between positions
- Manage overall portfolio heat, not individual position limits

## Decision Framework
1. What is the catalyst? (news, earnings, policy, sentiment shift)
2. What is the expected move? (direction, magnitude, timeframe)
3. What invalidates the thesis?
4. Risk/reward ratio assessment

## Entry Criteria
- Clear catalyst identified
- Favorable risk/reward (target > 2:1 when possible)
- Sufficient liquidity
- Not chasing extended moves

## Exit Criteria
- Target reached
- Thesis invalidated
- Better opportunity elsewhere
- Risk management (trailing stops, time stops)

## Evolution Log
This strategy will evolve based on what works. Document learnings below:

---
(Bot will append learnings here)
`
